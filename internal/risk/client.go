// Package risk assembles feature vectors from derived academic data and
// passes them to an external scoring service. The service is opaque: its
// response is relayed as-is, and when it is unreachable a fixed local
// fallback is returned instead, tagged so consumers can tell it apart
// from a real prediction.
package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// Risk labels returned by the scoring service.
const (
	RiskSafe     = "SAFE"
	RiskWarning  = "WARNING"
	RiskCritical = "CRITICAL"
)

// FallbackModelVersion marks predictions produced locally, not by the
// scoring service. Consumers must treat these as non-authoritative.
const FallbackModelVersion = "local-fallback-v0"

// FeatureVector is the flat input the scoring service takes.
type FeatureVector struct {
	AttendancePercentage float64 `json:"attendance_percentage"`
	BestOfTwoInternal    float64 `json:"best_of_two_internal"`
	AssignmentAverage    float64 `json:"assignment_average"`
	BehaviorScore        float64 `json:"behavior_score"`
	BacklogCount         int     `json:"backlog_count"`
	PreviousCGPA         float64 `json:"previous_cgpa"`
	Semester             int     `json:"semester"`
}

// Prediction is the scoring outcome relayed to callers.
type Prediction struct {
	Risk         string  `json:"risk"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"model_version"`
	Fallback     bool    `json:"fallback"`
}

// Client calls the external scoring service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  log.Logger
}

// NewClient creates a Client. An empty service URL disables remote calls
// entirely; every prediction is then the fallback.
func NewClient(cfg shared.RiskConfig, logger log.Logger) *Client {
	return &Client{
		baseURL: cfg.ServiceURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// fallback is deterministic: same output every time the remote call is
// unavailable.
func fallback() Prediction {
	return Prediction{
		Risk:         RiskSafe,
		Confidence:   0.8,
		ModelVersion: FallbackModelVersion,
		Fallback:     true,
	}
}

// Predict sends the feature vector to the scoring service. Unreachability
// is the one transient condition in the engine; it degrades to the local
// fallback rather than surfacing an error.
func (c *Client) Predict(ctx context.Context, fv FeatureVector) Prediction {
	if c.baseURL == "" {
		return fallback()
	}

	body, err := json.Marshal(fv)
	if err != nil {
		level.Warn(c.logger).Log("msg", "risk feature encoding failed", "err", err)
		return fallback()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return fallback()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		level.Warn(c.logger).Log("msg", "risk service unreachable, using fallback", "err", err)
		return fallback()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		level.Warn(c.logger).Log("msg", "risk service error, using fallback", "status", resp.StatusCode)
		return fallback()
	}

	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		level.Warn(c.logger).Log("msg", "risk response decoding failed, using fallback", "err", err)
		return fallback()
	}
	if pred.Risk == "" {
		return fallback()
	}
	if pred.ModelVersion == "" {
		pred.ModelVersion = "unknown"
	}
	return pred
}

// ============================================================================
// Feature assembly
// ============================================================================

// Store is the read boundary for feature assembly.
type Store interface {
	Assessment(ctx context.Context, studentID, subjectCode string, semester int) (*shared.AssessmentRecord, error)
	Profile(ctx context.Context, studentID string) (*shared.StudentAcademicProfile, error)
}

// Service builds feature vectors from a student's derived data and scores
// them.
type Service struct {
	store  Store
	client *Client
}

// NewService creates a Service.
func NewService(store Store, client *Client) *Service {
	return &Service{store: store, client: client}
}

// PredictFor assembles the feature vector for one (student, subject,
// semester) and returns the prediction.
func (s *Service) PredictFor(ctx context.Context, studentID, subjectCode string, semester int) (Prediction, FeatureVector, error) {
	rec, err := s.store.Assessment(ctx, studentID, subjectCode, semester)
	if err != nil {
		return Prediction{}, FeatureVector{}, err
	}
	profile, err := s.store.Profile(ctx, studentID)
	if err != nil {
		return Prediction{}, FeatureVector{}, err
	}

	fv := FeatureVector{
		AttendancePercentage: rec.AttendancePercentage,
		AssignmentAverage:    rec.AssignmentTotal,
		BehaviorScore:        rec.BehaviorScore,
		BacklogCount:         profile.ActiveBacklogCount,
		PreviousCGPA:         profile.CGPA,
		Semester:             semester,
	}
	if rec.BestOfTwoInternal != nil {
		fv.BestOfTwoInternal = *rec.BestOfTwoInternal
	}

	return s.client.Predict(ctx, fv), fv, nil
}

// String renders a prediction for logs.
func (p Prediction) String() string {
	return fmt.Sprintf("%s (%.2f, %s)", p.Risk, p.Confidence, p.ModelVersion)
}
