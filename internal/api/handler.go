package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Craig-Turley/listsync/internal/auth"
	"github.com/Craig-Turley/listsync/internal/logging"
	"github.com/Craig-Turley/listsync/internal/services"
	"github.com/Craig-Turley/listsync/pkg/idgen"
	"github.com/bwmarrin/snowflake"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Addr        string
	CORSOrigins []string
	Sync        *services.SyncService
}

func NewServer(addr string, origins []string, sync *services.SyncService) *Server {
	return &Server{
		Addr:        addr,
		CORSOrigins: origins,
		Sync:        sync,
	}
}

const (
	KEY_LIST_ID   = "listId"
	KEY_MEMBER_ID = "memberId"
)

func (s *Server) pathId(w http.ResponseWriter, r *http.Request, key string) (snowflake.ID, bool) {
	id, err := idgen.Parse(chi.URLParam(r, key))
	if err != nil {
		s.badRequestResponse(w, r, err)
		return 0, false
	}
	return id, true
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	data := map[string]any{}
	if err := readJSON(w, r, &data); err != nil {
		s.badRequestResponse(w, r, err)
		return nil, false
	}
	return data, true
}

// NOTE: modifies data
func (s *Server) HandlePostList(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	res, err := s.Sync.CreateList(r.Context(), data)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, r, http.StatusOK, res.View)
}

func (s *Server) HandleGetList(w http.ResponseWriter, r *http.Request) {
	listId, ok := s.pathId(w, r, KEY_LIST_ID)
	if !ok {
		return
	}

	view, err := s.Sync.GetList(r.Context(), listId)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, r, http.StatusOK, view)
}

// NOTE: modifies data
func (s *Server) HandlePutList(w http.ResponseWriter, r *http.Request) {
	listId, ok := s.pathId(w, r, KEY_LIST_ID)
	if !ok {
		return
	}

	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	res, err := s.Sync.UpdateList(r.Context(), listId, data)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, r, http.StatusOK, res.View)
}

// NOTE: modifies data
func (s *Server) HandleDeleteList(w http.ResponseWriter, r *http.Request) {
	listId, ok := s.pathId(w, r, KEY_LIST_ID)
	if !ok {
		return
	}

	res, err := s.Sync.RemoveList(r.Context(), listId)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, r, http.StatusOK, res.View)
}

// NOTE: modifies data
func (s *Server) HandlePostMember(w http.ResponseWriter, r *http.Request) {
	listId, ok := s.pathId(w, r, KEY_LIST_ID)
	if !ok {
		return
	}

	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	res, err := s.Sync.CreateMember(r.Context(), listId, data)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, r, http.StatusOK, res.View)
}

func (s *Server) HandleGetMembers(w http.ResponseWriter, r *http.Request) {
	listId, ok := s.pathId(w, r, KEY_LIST_ID)
	if !ok {
		return
	}

	views, err := s.Sync.ListMembers(r.Context(), listId)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, r, http.StatusOK, views)
}

// NOTE: modifies data
func (s *Server) HandlePutMember(w http.ResponseWriter, r *http.Request) {
	listId, ok := s.pathId(w, r, KEY_LIST_ID)
	if !ok {
		return
	}

	memberId, ok := s.pathId(w, r, KEY_MEMBER_ID)
	if !ok {
		return
	}

	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	res, err := s.Sync.UpdateMember(r.Context(), listId, memberId, data)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, r, http.StatusOK, res.View)
}

// NOTE: modifies data
func (s *Server) HandleDeleteMember(w http.ResponseWriter, r *http.Request) {
	listId, ok := s.pathId(w, r, KEY_LIST_ID)
	if !ok {
		return
	}

	memberId, ok := s.pathId(w, r, KEY_MEMBER_ID)
	if !ok {
		return
	}

	res, err := s.Sync.RemoveMember(r.Context(), listId, memberId)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, r, http.StatusOK, res.View)
}

func (s *Server) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, r, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) NewListRouter() http.Handler {
	router := chi.NewRouter()

	if auth.Enabled() {
		router.Use(Authorization)
	}

	router.Post("/", s.HandlePostList)
	router.Get("/{listId}", s.HandleGetList)
	router.Put("/{listId}", s.HandlePutList)
	router.Delete("/{listId}", s.HandleDeleteList)
	router.Post("/{listId}/members", s.HandlePostMember)
	router.Get("/{listId}/members", s.HandleGetMembers)
	router.Put("/{listId}/members/{memberId}", s.HandlePutMember)
	router.Delete("/{listId}/members/{memberId}", s.HandleDeleteMember)

	return router
}

func (s *Server) Routes() http.Handler {
	root := chi.NewRouter()
	root.Use(MiddlewareChain(Logging, middleware.Recoverer, EnableCors(s.CORSOrigins)))

	root.Get("/health", s.HandleHealthCheck)
	root.Mount("/mailchimp/lists", s.NewListRouter())

	return root
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.Addr).Msg("server has started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
