package trip

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

const cacheTTL = 5 * time.Minute

func cacheKey(id string) string {
	return "trip:" + id
}

func (s *Service) cacheGet(ctx context.Context, id string) (Trip, bool) {
	if s.cache == nil {
		return Trip{}, false
	}
	data, err := s.cache.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return Trip{}, false
	}
	var t Trip
	if err := json.Unmarshal(data, &t); err != nil {
		return Trip{}, false
	}
	return t, true
}

func (s *Service) cacheSet(ctx context.Context, t Trip) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(t.ID), data, cacheTTL).Err(); err != nil {
		log.Printf("trip cache set %s: %v", t.ID, err)
	}
}

func (s *Service) cacheDrop(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(id)).Err(); err != nil {
		log.Printf("trip cache drop %s: %v", id, err)
	}
}
