// Package redis connects graywire to a Redis server for the redis cache
// backend and the redis.client service class.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := cache.NewRedis(client.Commands(), "graywire")
//
// The connection is verified with PING before Connect returns.
package redis
