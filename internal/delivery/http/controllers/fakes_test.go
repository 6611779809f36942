package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	event       *domain.Event
	events      []*domain.Event
	total       int
	err         error
	lastInput   *domain.CreateEventInput
	lastUpdate  *domain.EventUpdate
	lastID      string
	lastParams  domain.PaginationParams
	deleteCalls int
}

func (f *fakeEventService) CreateEvent(_ context.Context, input *domain.CreateEventInput) (*domain.Event, error) {
	f.lastInput = input
	return f.event, f.err
}

func (f *fakeEventService) GetEvent(_ context.Context, id string) (*domain.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeEventService) ListEvents(_ context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastParams = params
	return f.events, f.total, f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, id string, update *domain.EventUpdate) (*domain.Event, error) {
	f.lastID = id
	f.lastUpdate = update
	return f.event, f.err
}

func (f *fakeEventService) DeleteEvent(_ context.Context, id string) error {
	f.lastID = id
	f.deleteCalls++
	return f.err
}

// fakeCategoryService implements domain.CategoryService for handler tests.
type fakeCategoryService struct {
	categories []*domain.Category
	category   *domain.Category
	err        error
	lastID     string
	lastName   string
}

func (f *fakeCategoryService) List(context.Context) ([]*domain.Category, error) {
	return f.categories, f.err
}

func (f *fakeCategoryService) Add(_ context.Context, name string) (*domain.Category, error) {
	f.lastName = name
	return f.category, f.err
}

func (f *fakeCategoryService) Rename(_ context.Context, id, name string) (*domain.Category, error) {
	f.lastID, f.lastName = id, name
	return f.category, f.err
}

func (f *fakeCategoryService) Delete(_ context.Context, id string) error {
	f.lastID = id
	return f.err
}

// fakeRegistrationService implements domain.RegistrationService for handler tests.
type fakeRegistrationService struct {
	userID       string
	participants []*domain.Participant
	total        int
	events       []*domain.Event
	err          error
	lastEventID  string
	lastParams   domain.PaginationParams
}

func (f *fakeRegistrationService) Register(_ context.Context, eventID string) (string, error) {
	f.lastEventID = eventID
	return f.userID, f.err
}

func (f *fakeRegistrationService) Cancel(_ context.Context, eventID string) error {
	f.lastEventID = eventID
	return f.err
}

func (f *fakeRegistrationService) ListParticipants(_ context.Context, eventID string, params domain.PaginationParams) ([]*domain.Participant, int, error) {
	f.lastEventID = eventID
	f.lastParams = params
	return f.participants, f.total, f.err
}

func (f *fakeRegistrationService) ListMyRegistrations(context.Context) ([]*domain.Event, error) {
	return f.events, f.err
}

// fakeImageService implements domain.ImageService for handler tests.
type fakeImageService struct {
	image        *domain.Image
	data         []byte
	err          error
	lastEventID  string
	lastFileName string
	uploaded     []byte
}

func (f *fakeImageService) UploadImage(_ context.Context, eventID, fileName string, r io.Reader) (*domain.Image, error) {
	f.lastEventID, f.lastFileName = eventID, fileName
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploaded = data
	return f.image, f.err
}

func (f *fakeImageService) GetImage(_ context.Context, eventID, fileName string) ([]byte, error) {
	f.lastEventID, f.lastFileName = eventID, fileName
	return f.data, f.err
}

func (f *fakeImageService) DeleteImage(_ context.Context, eventID, fileName string) error {
	f.lastEventID, f.lastFileName = eventID, fileName
	return f.err
}

// serve routes a single request through a mux so path values are populated.
func serve(pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeData decodes the envelope and unmarshals its data into dest.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.Nil(t, envelope.Error)
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func decodeErrorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.NotNil(t, envelope.Error)
	return envelope.Error.Code
}
