package main

import (
	"context"
	"sync"
	"time"

	"github.com/novenoa/cards/internal/card/repository"
	"github.com/novenoa/cards/internal/card/service"
	"github.com/novenoa/cards/internal/config"
	"github.com/novenoa/cards/internal/database"
	"github.com/novenoa/cards/pkg/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
	redisTimeout    = 5 * time.Second
)

// storeConn remembers how to release whichever client the background
// connect ended up opening.
type storeConn struct {
	mu    sync.Mutex
	close func(context.Context) error
}

func (s *storeConn) set(f func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.close = f
}

func (s *storeConn) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// connectStore attaches the configured backend to svc. Mongo and Redis are
// dialed in the background with retry; a final failure is logged and the
// service keeps answering 503 on data routes.
func connectStore(ctx context.Context, cfg *config.Config, svc *service.CardService) *storeConn {
	conn := &storeConn{}

	switch cfg.Cards.Store {
	case config.StoreMemory:
		logger.Warnf("using in-memory card store; data is lost on restart")
		svc.Attach(repository.NewMemoryRepo())

	case config.StoreRedis:
		go func() {
			err := database.Retry(ctx, "redis", connectAttempts, connectBackoff, func(ctx context.Context) error {
				client, err := database.ConnectRedis(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, redisTimeout)
				if err != nil {
					return err
				}
				conn.set(func(context.Context) error { return client.Close() })
				svc.Attach(repository.NewRedisRepo(client, cfg.Redis.Prefix))
				return nil
			})
			if err != nil {
				logger.Errorf("card store unavailable: %v", err)
				return
			}
			logger.Infof("connected to Redis card store at %s", cfg.Redis.Addr())
		}()

	default:
		go func() {
			err := database.Retry(ctx, "mongodb", connectAttempts, connectBackoff, func(ctx context.Context) error {
				client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
				if err != nil {
					return err
				}
				conn.set(client.Disconnect)
				col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
				svc.Attach(repository.NewMongoRepo(col))
				return nil
			})
			if err != nil {
				logger.Errorf("card store unavailable: %v", err)
				return
			}
			logger.Infof("connected to MongoDB card store %s.%s", cfg.MongoDB.Database, cfg.MongoDB.Collection)
		}()
	}

	return conn
}
