package memory

import (
	"time"

	"planner-notebook-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// EditorSessionRepository holds the active editing session per user.
// Sessions idle for a day are evicted together with their timers.
type EditorSessionRepository struct {
	cache *cache.Cache
}

func NewEditorSessionRepository() *EditorSessionRepository {
	c := cache.New(24*time.Hour, 1*time.Hour)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*store.EditorSession); ok && s.Autosave != nil {
			s.Autosave.Close()
		}
	})
	return &EditorSessionRepository{
		cache: c,
	}
}

func (r *EditorSessionRepository) Save(session *store.EditorSession) {
	r.cache.Set(session.UserID, session, cache.DefaultExpiration)
}

func (r *EditorSessionRepository) Get(userID string) (*store.EditorSession, bool) {
	if x, found := r.cache.Get(userID); found {
		return x.(*store.EditorSession), true
	}
	return nil, false
}

func (r *EditorSessionRepository) Delete(userID string) {
	r.cache.Delete(userID)
}
