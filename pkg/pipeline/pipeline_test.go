package pipeline

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/render"
)

func TestWorkersResolve(t *testing.T) {
	auto := min(runtime.NumCPU()*AutoWorkersPerCPU, MaxWorkers)
	tests := []struct {
		name    string
		workers Workers
		jobs    int
		want    int
	}{
		{"no jobs", 8, 0, 0},
		{"explicit", 4, 10, 4},
		{"clamped to jobs", 8, 3, 3},
		{"clamped to max", 500, 1000, MaxWorkers},
		{"auto one job", Auto, 1, 1},
		{"auto many jobs", Auto, 1000, auto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.workers.Resolve(tt.jobs))
		})
	}
}

func TestParseWorkers(t *testing.T) {
	tests := []struct {
		in      string
		want    Workers
		wantErr bool
	}{
		{"auto", Auto, false},
		{"AUTO", Auto, false},
		{"", Auto, false},
		{"12", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"many", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWorkers(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, snaperrors.Is(err, snaperrors.ErrCodeInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorkersJSON(t *testing.T) {
	var w Workers
	require.NoError(t, w.UnmarshalJSON([]byte(`"auto"`)))
	assert.Equal(t, Auto, w)
	require.NoError(t, w.UnmarshalJSON([]byte(`7`)))
	assert.Equal(t, Workers(7), w)
	require.Error(t, w.UnmarshalJSON([]byte(`"lots"`)))

	b, err := Workers(7).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "7", string(b))
	b, err = Auto.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"auto"`, string(b))
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{}
	require.NoError(t, opts.Validate())
	assert.Equal(t, DefaultJobTimeout, opts.JobTimeout)
	assert.Equal(t, render.DefaultWidth, opts.Render.Width)
	assert.NotNil(t, opts.Logger)

	bad := Options{Workers: -1}
	assert.True(t, snaperrors.Is(bad.Validate(), snaperrors.ErrCodeInvalidConfig))

	bad = Options{JobTimeout: -time.Second}
	assert.Error(t, bad.Validate())

	bad = Options{Render: render.Config{Width: 50, Height: 50, Padding: 40}}
	assert.True(t, snaperrors.Is(bad.Validate(), snaperrors.ErrCodeInvalidConfig))
}

func TestOptionsValidateKeepsZeroPadding(t *testing.T) {
	opts := Options{Render: render.NewConfig(render.WithSize(400, 300), render.WithPadding(0))}
	require.NoError(t, opts.Validate())
	assert.Equal(t, 0, opts.Render.Padding)
	assert.Equal(t, 400, opts.Render.Width)
}
