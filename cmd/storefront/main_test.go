package main

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/app"
)

func TestSetupLogger(t *testing.T) {
	prevFormatter, prevLevel := log.StandardLogger().Formatter, log.GetLevel()
	t.Cleanup(func() {
		log.SetFormatter(prevFormatter)
		log.SetLevel(prevLevel)
	})

	cfg := app.DefaultConfig()
	cfg.LogLevel = log.DebugLevel
	setupLogger(cfg)
	require.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)
	require.Equal(t, log.DebugLevel, log.GetLevel())

	cfg.Production = true
	cfg.LogLevel = log.WarnLevel
	setupLogger(cfg)
	require.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)
	require.Equal(t, log.WarnLevel, log.GetLevel())
}
