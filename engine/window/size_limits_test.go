package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSizeLimitsAreValid(t *testing.T) {
	assert.NoError(t, DefaultSizeLimits().Validate())
}

func TestSizeLimitsValidate(t *testing.T) {
	tests := []struct {
		name   string
		limits SizeLimits
		want   string
	}{
		{"zero minimum", SizeLimits{MinWidth: 0, MinHeight: 64, MaxWidth: 100, MaxHeight: 100}, "must be positive"},
		{"max below min", SizeLimits{MinWidth: 200, MinHeight: 64, MaxWidth: 100, MaxHeight: 100}, "below the minimum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.limits.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestSizeLimitsClamp(t *testing.T) {
	l := SizeLimits{MinWidth: 100, MinHeight: 80, MaxWidth: 1920, MaxHeight: 1080}

	w, h := l.Clamp(640, 480)
	assert.Equal(t, [2]int{640, 480}, [2]int{w, h})

	w, h = l.Clamp(10, 5000)
	assert.Equal(t, [2]int{100, 1080}, [2]int{w, h})

	w, h = l.Clamp(4000, 20)
	assert.Equal(t, [2]int{1920, 80}, [2]int{w, h})
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{limits: DefaultSizeLimits()}
	limits := SizeLimits{MinWidth: 32, MinHeight: 32, MaxWidth: 800, MaxHeight: 600}
	for _, opt := range []WindowBuilderOption{
		WithTitle("cube"),
		WithSize(1024, 768),
		WithSizeLimits(limits),
		WithClientAPI(ClientAPINone),
	} {
		opt(w)
	}

	assert.Equal(t, "cube", w.title)
	assert.Equal(t, 1024, w.Width())
	assert.Equal(t, 768, w.Height())
	assert.Equal(t, limits, w.limits)
	assert.Equal(t, ClientAPINone, w.ClientAPI())
}
