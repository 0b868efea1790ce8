// Command slu_server exposes the SLU pipeline over HTTP. POST /parse
// accepts a recognizer observation and returns the dialogue act
// confusion network; a parse failure degrades to the other() act so the
// dialogue loop upstream never stalls on a bad observation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/golangast/transitslu/pkg/logx"
	"github.com/golangast/transitslu/slu/cldb"
	"github.com/golangast/transitslu/slu/da"
	"github.com/golangast/transitslu/slu/dispatch"
	"github.com/golangast/transitslu/slu/handcrafted"
	"github.com/golangast/transitslu/slu/normalize"
	"github.com/golangast/transitslu/slu/trained"
	"github.com/golangast/transitslu/slu/utterance"
)

type environment struct {
	Addr       string        `envconfig:"ADDR" default:":8080"`
	LogLevel   string        `envconfig:"LOG_LEVEL" default:"info"`
	ConsoleLog bool          `envconfig:"CONSOLE_LOG" default:"false"`
	RedisAddr  string        `envconfig:"REDIS_ADDR"`
	CacheTTL   time.Duration `envconfig:"CACHE_TTL" default:"1h"`
}

type parseRequest struct {
	Utt string `json:"utt,omitempty"`
	NBL []struct {
		Prob float64 `json:"prob"`
		Utt  string  `json:"utt"`
	} `json:"nbl,omitempty"`
	CN string `json:"cn,omitempty"`
}

type parseResponse struct {
	Best  string     `json:"best"`
	Items []parseDAI `json:"items"`
}

type parseDAI struct {
	Prob float64 `json:"prob"`
	DAI  string  `json:"dai"`
}

func main() {
	var (
		cldbPath  = flag.String("cldb", "data/database.yaml", "category-label database")
		modelPath = flag.String("model", "", "trained model; the handcrafted parser runs when empty")
	)
	flag.Parse()

	_ = godotenv.Load()
	var env environment
	if err := envconfig.Process("slu", &env); err != nil {
		logx.Fatal().Err(err).Msg("bad environment")
	}
	logx.Init(logx.Opts{Level: env.LogLevel, Console: env.ConsoleLog})

	slu, err := buildSLU(*cldbPath, *modelPath)
	if err != nil {
		logx.Fatal().Err(err).Msg("cannot build parser")
	}

	var opts []dispatch.Option
	if env.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: env.RedisAddr})
		opts = append(opts, dispatch.WithCache(dispatch.NewCache(client, env.CacheTTL)))
		logx.Info().Str("addr", env.RedisAddr).Msg("parse cache enabled")
	}
	dispatcher := dispatch.NewDispatcher(slu, opts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/parse", handleParse(dispatcher))

	srv := &http.Server{Addr: env.Addr, Handler: r}
	go func() {
		logx.Info().Str("addr", env.Addr).Msg("slu server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logx.Error().Err(err).Msg("shutdown failed")
	}
}

func buildSLU(cldbPath, modelPath string) (dispatch.SLU, error) {
	db, err := cldb.Load(cldbPath)
	if err != nil {
		return nil, err
	}
	db.AddNumberForms()
	db.AddTimeForms()
	db.BuildIndices()

	norm := normalize.NewTransitEnglish()
	if modelPath == "" {
		return handcrafted.NewParser(db, norm), nil
	}
	model, err := trained.Load(modelPath)
	if err != nil {
		return nil, err
	}
	return trained.NewParser(model, db, norm), nil
}

func handleParse(d *dispatch.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req parseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		obs, err := toObservation(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		dac, err := d.Parse(r.Context(), obs)
		if err != nil {
			logx.Warn().Err(err).Msg("parse failed, answering other()")
			dac = da.NewConfusionNetwork()
			dac.Add(1.0, da.NewItem("other", "", ""))
		}

		resp := parseResponse{Best: dac.GetBestDA().String()}
		for _, h := range dac.Hyps() {
			resp.Items = append(resp.Items, parseDAI{Prob: h.Prob, DAI: h.Item.String()})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logx.Error().Err(err).Msg("cannot write response")
		}
	}
}

// toObservation picks the richest payload the request carries.
func toObservation(req parseRequest) (*dispatch.Observation, error) {
	if req.CN != "" {
		cn, err := utterance.ParseConfusionNetwork(req.CN)
		if err != nil {
			return nil, err
		}
		return dispatch.Observe(cn)
	}
	if len(req.NBL) > 0 {
		nbl := utterance.NewNBList()
		for _, h := range req.NBL {
			nbl.Add(h.Prob, utterance.New(h.Utt))
		}
		nbl.Merge()
		if err := nbl.Normalise(); err != nil {
			return nil, err
		}
		return dispatch.Observe(nbl)
	}
	return dispatch.Observe(req.Utt)
}
