package correlation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCorrelationType_String(t *testing.T) {
	tests := []struct {
		typ  CorrelationType
		want string
	}{
		{TypeEventToSeries, "<-( )"},
		{TypeEventToSeriesRise, "<-(+)"},
		{TypeEventToSeriesFall, "<-(-)"},
		{TypeSeriesToEvent, "( )->"},
		{TypeSeriesToEventRise, "(+)->"},
		{TypeSeriesToEventFall, "(-)->"},
		{TypeNone, "none"},
		{CorrelationType(9), "type(9)"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("CorrelationType(%d).String() = %q, want %q", int(tt.typ), got, tt.want)
		}
	}
}

func TestCorrelationType_Direction(t *testing.T) {
	for typ := TypeEventToSeries; typ <= TypeEventToSeriesFall; typ++ {
		if !typ.EventToSeries() || typ.SeriesToEvent() {
			t.Errorf("type %d should be event-to-series only", typ)
		}
	}
	for typ := TypeSeriesToEvent; typ <= TypeSeriesToEventFall; typ++ {
		if !typ.SeriesToEvent() || typ.EventToSeries() {
			t.Errorf("type %d should be series-to-event only", typ)
		}
	}
	if TypeNone.EventToSeries() || TypeNone.SeriesToEvent() {
		t.Error("TypeNone has no direction")
	}
}

func TestTestResult_JSON(t *testing.T) {
	in := TestResult{Correlated: true, Front: false, Rear: true, Type: TypeEventToSeriesRise}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"r":true,"d":[false,true],"t":1}`, string(data))

	var out TestResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestTestResult_YAML(t *testing.T) {
	data, err := yaml.Marshal(Uncorrelated)
	require.NoError(t, err)
	assert.Contains(t, string(data), "r: false")
	assert.Contains(t, string(data), "t: -1")
}

func TestRegistry(t *testing.T) {
	names := ListTesters()
	assert.Equal(t, []string{TesterCETS, TesterPearson}, names)

	tester, err := GetTester(TesterCETS, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, TesterCETS, tester.Name())
	_, ok := tester.(LengthEstimator)
	assert.True(t, ok, "cets tester should estimate sub-lengths")

	tester, err = GetTester(TesterPearson, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, TesterPearson, tester.Name())
	_, ok = tester.(LengthEstimator)
	assert.False(t, ok, "pearson tester needs no sub-length")

	_, err = GetTester("granger", DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative sub length", func(c *Config) { c.SubLength = -1 }, "sub_length"},
		{"ts ratio below one", func(c *Config) { c.TsRatio = 0.5 }, "ts_ratio"},
		{"acf ratio below one", func(c *Config) { c.AcfRatio = 0 }, "acf_ratio"},
		{"adf ratio below one", func(c *Config) { c.AdfRatio = 0 }, "adf_ratio"},
		{"zero width ratio", func(c *Config) { c.WidthRatio = 0 }, "width_ratio"},
		{"zero min", func(c *Config) { c.SubLenMin = 0 }, "sub_len_min"},
		{"max below min", func(c *Config) { c.SubLenMax = 10 }, "sub_len_max"},
		{"zero r", func(c *Config) { c.R = 0 }, "r"},
		{"negative threshold", func(c *Config) { c.NNDisThreshold = -1 }, "nn_dis_threshold"},
		{"negative pearson", func(c *Config) { c.PearsonThreshold = -0.1 }, "pearson_threshold"},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))

			var cfgErr *InvalidConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNewCETSTester_RejectsNegativeSubLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubLength = -5

	_, err := NewCETSTester(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
