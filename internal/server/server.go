// Package server exposes the prediction service over HTTP: single and
// batch endpoints, health and model info, Prometheus metrics, and a
// WebSocket feed that streams every prediction to connected clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"m6apred/internal/model"
	"m6apred/internal/predict"
	"m6apred/internal/schema"
	"m6apred/internal/storage"
	"m6apred/internal/table"
)

// Event is one prediction as broadcast to WebSocket clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	DNA5mer   string    `json:"DNA_5mer"`
	Prob      float64   `json:"predicted_m6A_prob"`
	Status    string    `json:"predicted_m6A_status"`
	Source    string    `json:"source"`
}

// MetricsInterface defines the metrics hooks the server reports to.
type MetricsInterface interface {
	StorageErrorsInc()
}

// Server serves the prediction API.
type Server struct {
	predictor *predict.Predictor
	backend   string
	metadata  *model.Metadata
	store     *storage.Store // optional
	metrics   MetricsInterface
	server    *http.Server
	upgrader  websocket.Upgrader
	startedAt time.Time

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool
}

// New creates a server on the given port. backend names the model backend
// in use ("onnx", "remote", "heuristic"); metadata, store, and metrics may
// be nil.
func New(predictor *predict.Predictor, backend string, metadata *model.Metadata, store *storage.Store, metrics MetricsInterface, port int) *Server {
	s := &Server{
		predictor: predictor,
		backend:   backend,
		metadata:  metadata,
		store:     store,
		metrics:   metrics,
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:   make(map[*websocket.Conn]bool),
		startedAt: time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/predict", s.handlePredict).Methods("POST")
	r.HandleFunc("/predict/batch", s.handlePredictBatch).Methods("POST")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/model/info", s.handleModelInfo).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Handler returns the server's HTTP handler, which tests exercise through
// httptest without binding a port.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start begins serving HTTP requests and blocks until shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting prediction server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and closes WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	return s.server.Shutdown(ctx)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var sample predict.Sample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	res, err := s.predictor.Single(ctx, sample)
	if err != nil {
		writePredictionError(w, err)
		return
	}

	s.record(sample, res, "server")
	s.broadcast(Event{
		Timestamp: time.Now(),
		DNA5mer:   sample.DNA5mer,
		Prob:      res.Prob,
		Status:    res.Status,
		Source:    "single",
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

type batchRequest struct {
	Samples []predict.Sample `json:"samples"`
}

type batchResponse struct {
	Results []predict.Result `json:"results"`
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Samples) == 0 {
		http.Error(w, "samples cannot be empty", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	in := samplesToTable(req.Samples)
	out, err := s.predictor.Batch(ctx, in)
	if err != nil {
		writePredictionError(w, err)
		return
	}

	probs := out.Column(schema.ColPredictedProb).Floats
	statuses := out.Column(schema.ColPredictedStatus).Strings

	resp := batchResponse{Results: make([]predict.Result, len(req.Samples))}
	for i := range req.Samples {
		resp.Results[i] = predict.Result{Prob: probs[i], Status: statuses[i]}
		s.record(req.Samples[i], resp.Results[i], "server")
		s.broadcast(Event{
			Timestamp: time.Now(),
			DNA5mer:   req.Samples[i].DNA5mer,
			Prob:      probs[i],
			Status:    statuses[i],
			Source:    "batch",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"healthy":        true,
		"backend":        s.backend,
		"threshold":      s.predictor.Threshold(),
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"backend":        s.backend,
		"schema_version": schema.Version,
		"features":       schema.FeatureColumns,
		"threshold":      s.predictor.Threshold(),
	}
	if s.metadata != nil {
		info["version"] = s.metadata.Version
		info["trained_at"] = s.metadata.TrainedAt
		info["accuracy"] = s.metadata.Accuracy
		info["roc_auc"] = s.metadata.ROCAUC
		info["pr_auc"] = s.metadata.PRAUC
		info["training_rows"] = s.metadata.TrainingRows
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("websocket client connected")

	// Reader loop only detects disconnects; clients never send payloads.
	go func() {
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, conn)
			s.clientsMu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcast sends an event to every connected WebSocket client.
func (s *Server) broadcast(ev Event) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if len(s.clients) == 0 {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal prediction event")
		return
	}

	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Msg("dropping websocket client")
			client.Close()
			delete(s.clients, client)
		}
	}
}

func (s *Server) record(sample predict.Sample, res predict.Result, source string) {
	if s.store == nil {
		return
	}
	rec := storage.PredictionRecord{
		Timestamp:    time.Now(),
		DNA5mer:      sample.DNA5mer,
		RNAType:      sample.RNAType,
		RNARegion:    sample.RNARegion,
		GCContent:    sample.GCContent,
		Conservation: sample.Conservation,
		Prob:         res.Prob,
		Status:       res.Status,
		Source:       source,
	}
	if err := s.store.StorePrediction(rec); err != nil {
		if s.metrics != nil {
			s.metrics.StorageErrorsInc()
		}
		log.Warn().Err(err).Msg("failed to persist prediction record")
	}
}

// writePredictionError maps validation failures to 400 and everything else
// (model errors included) to 500.
func writePredictionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var schemaErr *predict.SchemaError
	var seqErr *predict.InvalidSequenceError
	var catErr *predict.InvalidCategoryError
	if errors.As(err, &schemaErr) || errors.As(err, &seqErr) || errors.As(err, &catErr) {
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

// samplesToTable lays out samples as a batch input table with the required
// columns, so the HTTP batch endpoint exercises the same path as CSV input.
func samplesToTable(samples []predict.Sample) *table.Table {
	n := len(samples)
	gc := make([]float64, n)
	rnaT := make([]string, n)
	rnaR := make([]string, n)
	exon := make([]int64, n)
	dist := make([]float64, n)
	cons := make([]float64, n)
	seqs := make([]string, n)
	for i, s := range samples {
		gc[i] = s.GCContent
		rnaT[i] = s.RNAType
		rnaR[i] = s.RNARegion
		exon[i] = s.ExonLength
		dist[i] = s.DistanceToJunction
		cons[i] = s.Conservation
		seqs[i] = s.DNA5mer
	}

	t := table.New()
	t.MustAddColumn(table.Column{Name: schema.ColGCContent, Kind: table.Float, Floats: gc})
	t.MustAddColumn(table.Column{Name: schema.ColRNAType, Kind: table.String, Strings: rnaT})
	t.MustAddColumn(table.Column{Name: schema.ColRNARegion, Kind: table.String, Strings: rnaR})
	t.MustAddColumn(table.Column{Name: schema.ColExonLength, Kind: table.Int, Ints: exon})
	t.MustAddColumn(table.Column{Name: schema.ColDistJunction, Kind: table.Float, Floats: dist})
	t.MustAddColumn(table.Column{Name: schema.ColConservation, Kind: table.Float, Floats: cons})
	t.MustAddColumn(table.Column{Name: schema.ColDNA5mer, Kind: table.String, Strings: seqs})
	return t
}
