// Package controller ties the demo together: it holds the loaded sample,
// validates submissions, calls the API and turns each response into a status
// and a visualization.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/semsim/internal/client"
	"github.com/hyperjump/semsim/internal/models"
	"github.com/hyperjump/semsim/internal/outcome"
	"github.com/hyperjump/semsim/internal/samples"
	"github.com/hyperjump/semsim/internal/status"
	"github.com/hyperjump/semsim/internal/storage"
	"github.com/hyperjump/semsim/internal/visualize"
)

// ErrNoSample is returned by Submit when no sample XML is loaded.
var ErrNoSample = errors.New("no sample loaded")

const (
	msgNoSample         = "Please load an XML sample first."
	msgNoElements       = "Please enter element names."
	msgInvalidThreshold = "Please enter a valid threshold value between 0.0 and 1.0."
	msgInvalidElements  = "Invalid element names: %s"
)

// API is the part of the similarity API client the controller needs.
type API interface {
	Submit(ctx context.Context, xml string, req models.SubmitRequest) (*client.Response, error)
	Results(ctx context.Context) (*client.Response, error)
	Poll(ctx context.Context, opts client.PollOptions) (*client.Response, error)
	SubmitURL(req models.SubmitRequest) string
	ResultsURL() string
	SessionID() string
	SetSession(id string)
}

// SampleSource provides sample XML documents by name.
type SampleSource interface {
	Get(ctx context.Context, name string) (samples.Sample, error)
}

// Result is what one action produced. Outcome and Response are nil when the
// action never reached the API or the request failed. Visualization is only
// set by result fetches that returned groups.
type Result struct {
	Status        models.Status
	Outcome       outcome.Outcome
	Response      *client.Response
	Visualization *visualize.Visualization
	Err           error
}

// Controller is safe for concurrent use. Concurrent actions race on the
// shared state and the last one to finish wins.
type Controller struct {
	api             API
	samples         SampleSource
	history         storage.Storage
	logger          *zap.Logger
	containerHeight float64

	post status.Formatter
	get  status.Formatter

	mu            sync.RWMutex
	sample        *samples.Sample
	request       models.SubmitRequest
	submitStatus  models.Status
	resultsStatus models.Status
	visualization *visualize.Visualization
}

// Option configures a Controller.
type Option func(*Controller)

// WithHistory records every API call in h.
func WithHistory(h storage.Storage) Option {
	return func(c *Controller) { c.history = h }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithContainerHeight sets the chart container height used for layouts.
func WithContainerHeight(h float64) Option {
	return func(c *Controller) { c.containerHeight = h }
}

// WithDefaults sets the submission shown before the first submit.
func WithDefaults(req models.SubmitRequest) Option {
	return func(c *Controller) { c.request = req }
}

// New returns a controller using api for requests and src for samples.
func New(api API, src SampleSource, opts ...Option) *Controller {
	c := &Controller{
		api:             api,
		samples:         src,
		logger:          zap.NewNop(),
		containerHeight: 300,
		post:            status.Formatter{Label: "POST", Received: "Processing initiated."},
		get:             status.Formatter{Label: "GET"},
		request:         models.SubmitRequest{Elements: models.DefaultElements, Threshold: 0.75},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadSample makes the named sample the current XML. On failure the current
// XML is cleared.
func (c *Controller) LoadSample(ctx context.Context, name string) (samples.Sample, error) {
	s, err := c.samples.Get(ctx, name)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitStatus = models.Status{}
	c.resultsStatus = models.Status{}
	if err != nil {
		c.sample = nil
		c.logger.Warn("failed to load sample", zap.String("sample", name), zap.Error(err))
		return samples.Sample{}, fmt.Errorf("load sample %q: %w", name, err)
	}
	c.sample = &s
	c.logger.Debug("sample loaded", zap.String("sample", s.Name), zap.Int("bytes", s.Size))
	return s, nil
}

// SetXML makes xml the current document, as if a sample had been loaded.
// An empty xml clears it.
func (c *Controller) SetXML(name, xml string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if xml == "" {
		c.sample = nil
		return
	}
	s := samples.Sample{Name: name, XML: xml, Source: "inline", Size: len(xml)}
	c.sample = &s
}

// CurrentSample returns the loaded sample, if any.
func (c *Controller) CurrentSample() (samples.Sample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sample == nil {
		return samples.Sample{}, false
	}
	return *c.sample, true
}

// Submit validates req and posts the current XML. Validation failures are
// reported as error statuses without touching the network.
func (c *Controller) Submit(ctx context.Context, req models.SubmitRequest) Result {
	c.mu.RLock()
	sample := c.sample
	c.mu.RUnlock()

	if res, ok := c.validate(sample, &req); !ok {
		c.setSubmit(req, res.Status)
		return res
	}

	resp, err := c.api.Submit(ctx, sample.XML, req)
	if err == nil {
		c.adoptSession(resp)
	}
	res := c.finish(ctx, c.post, models.ActionSubmit, c.api.SubmitURL(req), resp, err)
	c.setSubmit(req, res.Status)
	return res
}

// adoptSession takes the session from the sessionId field of the body when
// the API did not set a session cookie.
func (c *Controller) adoptSession(resp *client.Response) {
	if c.api.SessionID() != "" {
		return
	}
	var body models.APIResponse
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil || body.SessionID == "" {
		return
	}
	c.logger.Debug("session taken from response body", zap.String("session", body.SessionID))
	c.api.SetSession(body.SessionID)
}

func (c *Controller) validate(sample *samples.Sample, req *models.SubmitRequest) (Result, bool) {
	if sample == nil || sample.XML == "" {
		return Result{Status: c.post.Failure(msgNoSample), Err: ErrNoSample}, false
	}
	err := req.Validate()
	switch {
	case err == nil:
		return Result{}, true
	case errors.Is(err, models.ErrInvalidElements) && req.Elements == "":
		return Result{Status: c.post.Failure(msgNoElements), Err: err}, false
	case errors.Is(err, models.ErrInvalidElements):
		return Result{Status: c.post.Failure(fmt.Sprintf(msgInvalidElements, req.Elements)), Err: err}, false
	default:
		return Result{Status: c.post.Failure(msgInvalidThreshold), Err: err}, false
	}
}

// FetchResults gets the results of the current session. On a Groups outcome
// the visualization is rebuilt; every other outcome clears it to nil.
func (c *Controller) FetchResults(ctx context.Context) Result {
	resp, err := c.api.Results(ctx)
	res := c.finish(ctx, c.get, models.ActionResults, c.api.ResultsURL(), resp, err)
	c.setResults(&res)
	return res
}

// AwaitResults polls for results while the API answers 202 Accepted. When
// the attempts run out the last response is classified as usual and Err
// wraps client.ErrStillProcessing.
func (c *Controller) AwaitResults(ctx context.Context, opts client.PollOptions) Result {
	resp, err := c.api.Poll(ctx, opts)
	var res Result
	if resp != nil {
		res = c.finish(ctx, c.get, models.ActionResults, c.api.ResultsURL(), resp, nil)
		res.Err = err
	} else {
		res = c.finish(ctx, c.get, models.ActionResults, c.api.ResultsURL(), nil, err)
	}
	c.setResults(&res)
	return res
}

// finish classifies a response, formats its status and records it.
func (c *Controller) finish(ctx context.Context, f status.Formatter, action models.Action, url string, resp *client.Response, err error) Result {
	if err != nil {
		res := Result{Status: f.NetworkFailure(err), Err: err}
		c.record(ctx, action, url, res)
		return res
	}
	o := outcome.Classify(resp.OK, resp.Body)
	res := Result{
		Status:   f.Format(resp.OK, o, resp.StatusCode, resp.StatusText),
		Outcome:  o,
		Response: resp,
	}
	c.logger.Info("api call finished",
		zap.String("action", string(action)),
		zap.Int("status", resp.StatusCode),
		zap.String("outcome", string(outcome.KindOf(o))),
		zap.String("severity", string(res.Status.Severity)),
	)
	c.record(ctx, action, url, res)
	return res
}

func (c *Controller) record(ctx context.Context, action models.Action, url string, res Result) {
	if c.history == nil {
		return
	}
	run := &models.Run{
		SessionID:  c.api.SessionID(),
		Action:     action,
		URL:        url,
		Severity:   res.Status.Severity,
		Message:    res.Status.Message,
		GroupCount: len(outcome.GroupsOf(res.Outcome)),
		Outcome:    "network_error",
	}
	if res.Response != nil {
		run.HTTPStatus = res.Response.StatusCode
		run.OK = res.Response.OK
		run.Outcome = string(outcome.KindOf(res.Outcome))
	}
	// Use a context that survives cancellation of the request it records.
	if err := c.history.CreateRun(context.WithoutCancel(ctx), run); err != nil {
		c.logger.Warn("failed to record run", zap.String("action", string(action)), zap.Error(err))
	}
}

func (c *Controller) setSubmit(req models.SubmitRequest, st models.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.request = req
	c.submitStatus = st
}

func (c *Controller) setResults(res *Result) {
	if groups := outcome.GroupsOf(res.Outcome); len(groups) > 0 {
		res.Visualization = visualize.New(groups, c.containerHeight)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resultsStatus = res.Status
	c.visualization = res.Visualization
}

// Snapshot is a copy of the controller state for rendering.
type Snapshot struct {
	Sample        *samples.Sample
	Request       models.SubmitRequest
	SubmitStatus  models.Status
	ResultsStatus models.Status
	Visualization *visualize.Visualization
	// ContainerHeight is the chart height layouts are computed for.
	ContainerHeight float64
}

// Snapshot returns the current state. The visualization is shared, not copied.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{
		Request:         c.request,
		SubmitStatus:    c.submitStatus,
		ResultsStatus:   c.resultsStatus,
		Visualization:   c.visualization,
		ContainerHeight: c.containerHeight,
	}
	if c.sample != nil {
		s := *c.sample
		snap.Sample = &s
	}
	return snap
}
