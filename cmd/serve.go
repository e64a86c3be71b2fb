package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fairwaylabs/clubtrack/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for crawl and refresh requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		crawler := pipeline.NewCrawler(env.Store, env.Sources, env.Reconciler, cfg.Crawl.MaxPages)
		refresher := pipeline.NewRefresher(env.Store, env.Sources, env.Reconciler,
			time.Duration(cfg.Refresh.IntervalHours)*time.Hour, cfg.Refresh.Concurrency)

		// Set up routes
		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /webhook/crawl", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Source   string `json:"source"`
				Category string `json:"category"`
				Brand    string `json:"brand"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if req.Source == "" {
				req.Source = "globalgolf"
			}
			if _, err := env.Sources.Get(req.Source); err != nil {
				http.Error(w, `{"error":"unknown source"}`, http.StatusBadRequest)
				return
			}

			// Run the crawl asynchronously
			go func() {
				summary, err := crawler.Run(ctx, pipeline.CrawlOptions{
					Source:   req.Source,
					Category: req.Category,
					Brand:    req.Brand,
				})
				if err != nil {
					zap.L().Error("webhook crawl failed",
						zap.String("source", req.Source),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("webhook crawl complete",
					zap.String("run_id", summary.RunID),
					zap.Int("added", summary.RecordsAdded),
					zap.Int("updated", summary.RecordsUpdated),
				)
			}()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "accepted",
				"source": req.Source,
			})
		})

		mux.HandleFunc("POST /webhook/refresh", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Source   string `json:"source"`
				MaxBatch int    `json:"max_batch"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if req.Source == "" {
				req.Source = "globalgolf"
			}
			if _, err := env.Sources.Get(req.Source); err != nil {
				http.Error(w, `{"error":"unknown source"}`, http.StatusBadRequest)
				return
			}
			maxBatch := req.MaxBatch
			if maxBatch == 0 {
				maxBatch = cfg.Refresh.MaxBatch
			}

			go func() {
				summary, err := refresher.Run(ctx, pipeline.RefreshOptions{
					Source:   req.Source,
					MaxBatch: maxBatch,
				})
				if err != nil {
					zap.L().Error("webhook refresh failed",
						zap.String("source", req.Source),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("webhook refresh complete",
					zap.String("run_id", summary.RunID),
					zap.Int("refreshed", summary.RecordsUpdated),
				)
			}()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "accepted",
				"source": req.Source,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
