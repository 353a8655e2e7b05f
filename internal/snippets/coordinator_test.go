package snippets

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "sambou/internal/errors"
	"sambou/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// gatedOracle blocks each call until its department's gate is released
type gatedOracle struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	calls chan string
	fail  map[string]bool
}

func newGatedOracle() *gatedOracle {
	return &gatedOracle{gates: map[string]chan struct{}{}, calls: make(chan string, 8), fail: map[string]bool{}}
}

func (o *gatedOracle) gate(dept string) chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	g, ok := o.gates[dept]
	if !ok {
		g = make(chan struct{})
		o.gates[dept] = g
	}
	return g
}

func (o *gatedOracle) Generate(ctx context.Context, in models.SnippetInput) (*models.ApplicationSnippets, error) {
	o.calls <- in.DepartmentName
	<-o.gate(in.DepartmentName)
	o.mu.Lock()
	fail := o.fail[in.DepartmentName]
	o.mu.Unlock()
	if fail {
		return nil, errors.New("oracle down")
	}
	return &models.ApplicationSnippets{WhyThisProgram: "advice for " + in.DepartmentName}, nil
}

func key(dept string) models.DepartmentKey {
	return models.DepartmentKey{UniversityName: "MIT", DepartmentName: dept}
}

func TestRequestSuccess(t *testing.T) {
	oracle := newGatedOracle()
	close(oracle.gate("Physics"))

	st, err := NewCoordinator(oracle, nil).Request(context.Background(), "GPA: 4.0", key("Physics"))
	require.NoError(t, err)
	assert.False(t, st.Loading)
	assert.False(t, st.Error)
	assert.Equal(t, "advice for Physics", st.Result.WhyThisProgram)
	assert.Equal(t, key("Physics"), *st.Target)
}

func TestBeginResetsToLoadingWithoutData(t *testing.T) {
	oracle := newGatedOracle()
	close(oracle.gate("Physics"))
	c := NewCoordinator(oracle, nil)
	_, err := c.Request(context.Background(), "p", key("Physics"))
	require.NoError(t, err)

	c.Begin(key("Biology"))
	st := c.Current()
	assert.True(t, st.Loading)
	assert.Nil(t, st.Result)
	assert.Equal(t, "Biology", st.Target.DepartmentName)
}

func TestLateResponseForSupersededTargetIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t)

	oracle := newGatedOracle()
	c := NewCoordinator(oracle, nil)

	var wg sync.WaitGroup
	var staleErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, staleErr = c.Request(context.Background(), "p", key("X"))
	}()
	require.Equal(t, "X", <-oracle.calls)

	// Y supersedes X before X resolves
	close(oracle.gate("Y"))
	st, err := c.Request(context.Background(), "p", key("Y"))
	require.NoError(t, err)
	assert.Equal(t, "advice for Y", st.Result.WhyThisProgram)

	close(oracle.gate("X"))
	wg.Wait()
	assert.Equal(t, apperrors.CodeStaleResponse, apperrors.GetCode(staleErr))

	final := c.Current()
	assert.Equal(t, "Y", final.Target.DepartmentName)
	assert.Equal(t, "advice for Y", final.Result.WhyThisProgram)
	assert.False(t, final.Loading)
}

func TestFailureSetsErrorFlagAndAllowsRetry(t *testing.T) {
	oracle := newGatedOracle()
	oracle.fail["Physics"] = true
	close(oracle.gate("Physics"))
	c := NewCoordinator(oracle, nil)

	st, err := c.Request(context.Background(), "p", key("Physics"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetCode(err))
	assert.True(t, st.Error)
	assert.Nil(t, st.Result)
	assert.False(t, st.Loading)

	oracle.mu.Lock()
	oracle.fail["Physics"] = false
	oracle.mu.Unlock()
	st, err = c.Request(context.Background(), "p", key("Physics"))
	require.NoError(t, err)
	assert.False(t, st.Error)
	assert.NotNil(t, st.Result)
}

func TestClearInvalidatesInFlight(t *testing.T) {
	oracle := newGatedOracle()
	c := NewCoordinator(oracle, nil)
	gen := c.Begin(key("Physics"))
	c.Clear()

	close(oracle.gate("Physics"))
	_, err := c.Fetch(context.Background(), gen, "p", key("Physics"))
	assert.Equal(t, apperrors.CodeStaleResponse, apperrors.GetCode(err))
	assert.Nil(t, c.Current().Target)
}
