package tagsync

import "performer-tag-sync/core/reconcile"

// Images returns the image kind of the stash schema.
func Images() reconcile.EntityKind {
	return reconcile.EntityKind{
		Name:            "images",
		Table:           "images",
		PerformerTable:  "performers_images",
		PerformerColumn: "image_id",
		TagTable:        "images_tags",
		TagColumn:       "image_id",
	}
}

// Galleries returns the gallery kind of the stash schema.
func Galleries() reconcile.EntityKind {
	return reconcile.EntityKind{
		Name:            "galleries",
		Table:           "galleries",
		PerformerTable:  "performers_galleries",
		PerformerColumn: "gallery_id",
		TagTable:        "galleries_tags",
		TagColumn:       "gallery_id",
	}
}

// Scenes returns the scene kind of the stash schema.
func Scenes() reconcile.EntityKind {
	return reconcile.EntityKind{
		Name:            "scenes",
		Table:           "scenes",
		PerformerTable:  "performers_scenes",
		PerformerColumn: "scene_id",
		TagTable:        "scenes_tags",
		TagColumn:       "scene_id",
	}
}

// AllKinds returns every supported kind in processing order.
func AllKinds() []reconcile.EntityKind {
	return []reconcile.EntityKind{Images(), Galleries(), Scenes()}
}

// Kinds returns the kinds enabled in cfg, in processing order.
func Kinds(cfg Config) []reconcile.EntityKind {
	var kinds []reconcile.EntityKind
	if cfg.EnableImages {
		kinds = append(kinds, Images())
	}
	if cfg.EnableGalleries {
		kinds = append(kinds, Galleries())
	}
	if cfg.EnableScenes {
		kinds = append(kinds, Scenes())
	}
	return kinds
}

// KindByName returns the kind with the given name.
func KindByName(name string) (reconcile.EntityKind, bool) {
	for _, kind := range AllKinds() {
		if kind.Name == name {
			return kind, true
		}
	}
	return reconcile.EntityKind{}, false
}
