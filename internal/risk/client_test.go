package risk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

func testClient(url string) *Client {
	return NewClient(shared.RiskConfig{ServiceURL: url, Timeout: 2 * time.Second}, log.NewNopLogger())
}

func sampleFeatures() FeatureVector {
	return FeatureVector{
		AttendancePercentage: 82,
		BestOfTwoInternal:    20,
		AssignmentAverage:    15,
		BehaviorScore:        8,
		BacklogCount:         1,
		PreviousCGPA:         7.4,
		Semester:             4,
	}
}

func TestPredict_RelaysServiceResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		var fv FeatureVector
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fv))
		assert.Equal(t, 82.0, fv.AttendancePercentage)

		json.NewEncoder(w).Encode(Prediction{
			Risk:         RiskWarning,
			Confidence:   0.91,
			ModelVersion: "xgb-2024-11",
		})
	}))
	defer srv.Close()

	pred := testClient(srv.URL).Predict(context.Background(), sampleFeatures())
	assert.Equal(t, RiskWarning, pred.Risk)
	assert.Equal(t, 0.91, pred.Confidence)
	assert.Equal(t, "xgb-2024-11", pred.ModelVersion)
	assert.False(t, pred.Fallback)
}

func TestPredict_FallbackIsDeterministic(t *testing.T) {
	cases := map[string]*Client{
		"no url configured":   testClient(""),
		"service unreachable": testClient("http://127.0.0.1:1"),
	}
	for name, client := range cases {
		t.Run(name, func(t *testing.T) {
			first := client.Predict(context.Background(), sampleFeatures())
			second := client.Predict(context.Background(), sampleFeatures())

			assert.Equal(t, first, second)
			assert.True(t, first.Fallback)
			assert.Equal(t, RiskSafe, first.Risk)
			assert.Equal(t, FallbackModelVersion, first.ModelVersion)
		})
	}
}

func TestPredict_FallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	pred := testClient(srv.URL).Predict(context.Background(), sampleFeatures())
	assert.True(t, pred.Fallback)
	assert.Equal(t, RiskSafe, pred.Risk)
}

func TestPredict_FallbackOnMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	pred := testClient(srv.URL).Predict(context.Background(), sampleFeatures())
	assert.True(t, pred.Fallback)
}

func TestPredict_FallbackOnEmptyRisk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(Prediction{Confidence: 0.5})
	}))
	defer srv.Close()

	pred := testClient(srv.URL).Predict(context.Background(), sampleFeatures())
	assert.True(t, pred.Fallback)
}

// fakeStore backs PredictFor with fixed records.
type fakeStore struct {
	rec     *shared.AssessmentRecord
	profile *shared.StudentAcademicProfile
}

func (s *fakeStore) Assessment(_ context.Context, _, _ string, _ int) (*shared.AssessmentRecord, error) {
	if s.rec == nil {
		return nil, shared.Errorf(shared.CodeNotFound, "no assessment")
	}
	return s.rec, nil
}

func (s *fakeStore) Profile(_ context.Context, _ string) (*shared.StudentAcademicProfile, error) {
	if s.profile == nil {
		return nil, shared.Errorf(shared.CodeNotFound, "no profile")
	}
	return s.profile, nil
}

func TestPredictFor_AssemblesFeatures(t *testing.T) {
	best := 21.5
	store := &fakeStore{
		rec: &shared.AssessmentRecord{
			AttendancePercentage: 78,
			BestOfTwoInternal:    &best,
			AssignmentTotal:      14,
			BehaviorScore:        7,
		},
		profile: &shared.StudentAcademicProfile{
			ID: "s", CGPA: 8.1, ActiveBacklogCount: 2,
		},
	}
	svc := NewService(store, testClient(""))

	pred, fv, err := svc.PredictFor(context.Background(), "s", "CS301", 4)
	require.NoError(t, err)

	assert.Equal(t, 78.0, fv.AttendancePercentage)
	assert.Equal(t, 21.5, fv.BestOfTwoInternal)
	assert.Equal(t, 14.0, fv.AssignmentAverage)
	assert.Equal(t, 7.0, fv.BehaviorScore)
	assert.Equal(t, 2, fv.BacklogCount)
	assert.Equal(t, 8.1, fv.PreviousCGPA)
	assert.Equal(t, 4, fv.Semester)
	assert.True(t, pred.Fallback)
}

func TestPredictFor_MissingRecord(t *testing.T) {
	svc := NewService(&fakeStore{}, testClient(""))
	_, _, err := svc.PredictFor(context.Background(), "s", "CS301", 4)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}
