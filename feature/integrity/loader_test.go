package integrity

import (
	"testing"

	"performer-tag-sync/core/database/dbtest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoader(t *testing.T) {
	svc := NewService(dbtest.OpenStash(t), defaultConfig(), testKinds, zap.NewNop())
	feature := NewFeature(svc)

	assert.Equal(t, "integrity", feature.Name())
	assert.True(t, feature.IsEnabled())

	app := fiber.New()
	err := feature.Load(app)
	assert.NoError(t, err)
}

func TestLoader_DisabledWithoutDatabase(t *testing.T) {
	assert.False(t, NewFeature(nil).IsEnabled())
	assert.False(t, NewFeature(NewService(nil, defaultConfig(), testKinds, zap.NewNop())).IsEnabled())
}
