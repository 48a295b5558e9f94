package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"

	"github.com/go-chi/chi/v5"

	"sensuapi/internal/jsoncodec"
	"sensuapi/internal/logger"
	"sensuapi/internal/pipeline"
	"sensuapi/internal/store"
	"sensuapi/pkg/models"
)

// stashPath returns the wildcard capture of a stash route. The path may
// contain slashes. Routing uses the escaped path when the URL has one.
func stashPath(r *http.Request) string {
	p := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return p
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		return unescaped
	}
	return p
}

// saveStash writes content under path and records the path for listing.
func (s *Server) saveStash(ctx context.Context, path string, content any) error {
	data, err := jsoncodec.Marshal(content)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, store.StashKey(path), string(data)); err != nil {
		return err
	}
	return s.store.SAdd(ctx, store.StashesKey, path)
}

func (s *Server) postStash(w http.ResponseWriter, r *http.Request) {
	content, ok := readJSON(r)
	if !ok {
		badRequest(w)
		return
	}
	path := stashPath(r)
	if err := s.saveStash(r.Context(), path, content); err != nil {
		internalError(w, r, err)
		return
	}
	created(w, models.PathResponse{Path: path})
}

func (s *Server) getStash(w http.ResponseWriter, r *http.Request) {
	stashJSON, ok, err := s.store.Get(r.Context(), store.StashKey(stashPath(r)))
	switch {
	case err != nil:
		internalError(w, r, err)
	case !ok:
		notFound(w)
	default:
		writeRaw(w, stashJSON)
	}
}

func (s *Server) deleteStash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := stashPath(r)
	exists, err := s.store.Exists(ctx, store.StashKey(path))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !exists {
		notFound(w)
		return
	}
	if err := s.store.SRem(ctx, store.StashesKey, path); err != nil {
		internalError(w, r, err)
		return
	}
	if err := s.store.Del(ctx, store.StashKey(path)); err != nil {
		internalError(w, r, err)
		return
	}
	noContent(w)
}

// listStashes returns every live stash with its remaining TTL. Paths whose
// value has expired are dropped from the stash set on the way.
func (s *Server) listStashes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paths, err := s.store.SMembers(ctx, store.StashesKey)
	if err != nil {
		internalError(w, r, err)
		return
	}
	sort.Strings(paths)

	items, err := pipeline.Gather(ctx, paths, func(ctx context.Context, path string) (models.StashItem, bool, error) {
		stashJSON, ok, err := s.store.Get(ctx, store.StashKey(path))
		if err != nil {
			return models.StashItem{}, false, err
		}
		ttl, err := s.store.TTL(ctx, store.StashKey(path))
		if err != nil {
			return models.StashItem{}, false, err
		}
		if !ok {
			if err := s.store.SRem(ctx, store.StashesKey, path); err != nil {
				logger.Warnf("Failed to prune expired stash %s: %v", path, err)
			}
			return models.StashItem{}, false, nil
		}
		return models.StashItem{
			Path:    path,
			Content: json.RawMessage(stashJSON),
			Expire:  ttl,
		}, true, nil
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, paginate(w, r, items))
}

// createStash stores the content field of the body under its path field,
// optionally expiring it after expire seconds.
func (s *Server) createStash(w http.ResponseWriter, r *http.Request) {
	data, ok := readObject(r, rules{
		"path":    {kind: stringField},
		"content": {kind: objectField},
		"expire":  {kind: integerField, nilOK: true},
	})
	if !ok {
		badRequest(w)
		return
	}

	ctx := r.Context()
	path := data["path"].(string)
	if err := s.saveStash(ctx, path, data["content"]); err != nil {
		internalError(w, r, err)
		return
	}
	if expire, ok := integerValue(data["expire"]); ok {
		if err := s.store.Expire(ctx, store.StashKey(path), expire); err != nil {
			internalError(w, r, err)
			return
		}
	}
	created(w, models.PathResponse{Path: path})
}
