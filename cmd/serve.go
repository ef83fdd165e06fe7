package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-sync/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the query API over the stored data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: apiRouter(st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func apiRouter(st store.Store) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/companies/{ticker}", func(r chi.Router) {
		r.Get("/", handleGetCompany(st))
		r.Get("/facts", handleListFacts(st))
	})

	return r
}

func handleGetCompany(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticker := chi.URLParam(r, "ticker")

		company, err := st.GetCompany(r.Context(), ticker)
		if err != nil {
			zap.L().Error("get company", zap.String("ticker", ticker), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		if company == nil {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}

		writeJSON(w, http.StatusOK, company)
	}
}

func handleListFacts(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticker := chi.URLParam(r, "ticker")

		company, err := st.GetCompany(r.Context(), ticker)
		if err != nil {
			zap.L().Error("get company", zap.String("ticker", ticker), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		if company == nil {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}

		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}

		facts, err := st.ListFacts(r.Context(), company.CIK, limit)
		if err != nil {
			zap.L().Error("list facts", zap.String("cik", company.CIK), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"cik":   company.CIK,
			"count": len(facts),
			"facts": facts,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
