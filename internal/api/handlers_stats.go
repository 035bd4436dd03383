package api

import (
	"net/http"

	"pitchforge/internal/market"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"model":       s.cfg.LLMModel,
		"queue_depth": s.manager.QueueDepth(),
	}
	if s.stats != nil {
		payload["llm"] = s.stats.Snapshot()
	}
	if s.packages != nil {
		if count, err := s.packages.Count(r.Context()); err == nil {
			payload["packages"] = count
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	suggestions := market.Recommend(market.Query{
		Region:   q.Get("region"),
		Language: q.Get("language"),
		Genre:    q.Get("genre"),
	})
	writeJSON(w, http.StatusOK, suggestions)
}
