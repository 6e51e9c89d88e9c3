package queue

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/config"
)

// Server consumes the background task queues inside the same binary.
type Server struct {
	inner *asynq.Server
	mux   *asynq.ServeMux
	log   *zerolog.Logger
}

func NewServer(redisCfg *config.RedisConfig, concurrency int, logger *zerolog.Logger) *Server {
	srvLog := logger.With().Str("component", "QueueServer").Logger()
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	return &Server{inner: srv, mux: asynq.NewServeMux(), log: &srvLog}
}

func (s *Server) Handle(taskType string, handler asynq.Handler) {
	s.mux.Handle(taskType, handler)
}

func (s *Server) Start() error {
	s.log.Info().Msg("starting task queue server")
	return s.inner.Start(s.mux)
}

func (s *Server) Shutdown() {
	s.log.Info().Msg("stopping task queue server")
	s.inner.Shutdown()
}
