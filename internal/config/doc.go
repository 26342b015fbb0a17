// Package config loads the render worker settings from the environment.
//
// Every variable has a default suitable for a local redis, so a bare
// `render-worker` starts without any setup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger.Info("configuration loaded", zap.String("config", cfg.String()))
//
// Templates named by a job are read from TEMPLATE_DIR when it is set and
// from redis keys under TEMPLATE_KEY_PREFIX otherwise. String leaves out
// REDIS_PASS.
package config
