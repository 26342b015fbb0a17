// Package worker runs template rendering as a redis streams consumer.
//
// Jobs arrive on the work stream as a single "data" field holding a JSON
// render.Request. Each job is rendered, the output is published to the
// result stream and failures go to the result stream with an ".errors"
// suffix. Every message is acknowledged, whether or not it rendered.
//
//	renderer := render.NewRenderer(engine, logger, render.WithFormatter(format.New()))
//	w := worker.NewWorker(cfg, redisClient, renderer, logger)
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop(ctx)
//
// Producers queue jobs with Submit.
//
// Health checks are provided via a separate HTTP server:
//
//	hs := worker.NewHealthServer(8082, logger, worker.RedisCheck(redisClient))
//	hs.Start()
//	defer hs.Stop()
package worker
