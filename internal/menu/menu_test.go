package menu

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robustabar/robustabar/internal/config"
	"github.com/robustabar/robustabar/internal/robusta"
	"github.com/robustabar/robustabar/internal/types"
)

var testNow = time.Date(2024, 9, 2, 12, 0, 0, 0, time.UTC)

func testBuilder(display config.DisplayConfig) *Builder {
	return NewBuilder(display, "/usr/local/bin/robustabar", "/home/u/.config/robustabar/config.yml", testNow)
}

func alert(id string, p types.Priority, cluster string, age time.Duration) types.Alert {
	return types.Alert{
		ID:           id,
		AlertName:    id,
		Priority:     p,
		Cluster:      cluster,
		Namespace:    "default",
		ResourceName: "pod-1",
		StartedAt:    testNow.Add(-age),
	}
}

func TestTitleIconStateMachine(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	cases := []struct {
		name   string
		alerts []types.Alert
		icon   string
	}{
		{
			name: "critical wins over everything",
			alerts: []types.Alert{
				alert("c", types.PriorityCritical, "prod", time.Hour),
				alert("h", types.PriorityHigh, "prod", time.Hour),
				alert("l", types.PriorityLow, "prod", time.Hour),
			},
			icon: ":exclamationmark.octagon.fill:",
		},
		{
			name: "high without critical",
			alerts: []types.Alert{
				alert("h", types.PriorityHigh, "prod", time.Hour),
				alert("m", types.PriorityMedium, "prod", time.Hour),
			},
			icon: ":exclamationmark.triangle.fill:",
		},
		{
			name: "medium low info only",
			alerts: []types.Alert{
				alert("m", types.PriorityMedium, "prod", time.Hour),
				alert("i", types.PriorityInfo, "prod", time.Hour),
			},
			icon: ":bell.badge:",
		},
		{
			name:   "empty",
			alerts: nil,
			icon:   ":bell:",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			title := b.Render(tc.alerts, nil, types.ChangeSet{})[0]
			assert.True(t, strings.HasPrefix(title, tc.icon), "got %q", title)
		})
	}
}

func TestTitleCountBreakdown(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	lines := b.Render([]types.Alert{
		alert("c1", types.PriorityCritical, "prod", time.Hour),
		alert("c2", types.PriorityCritical, "prod", time.Hour),
		alert("h", types.PriorityHigh, "prod", time.Hour),
	}, nil, types.ChangeSet{})
	assert.Equal(t, ":exclamationmark.octagon.fill: C:2 H:1", lines[0])
}

func TestPartialFailureRendering(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	clusterErrors := map[string]error{
		"broken": &robusta.FetchError{
			Kind:    robusta.FailureAuth,
			Cluster: "broken",
			Status:  401,
		},
	}
	alerts := []types.Alert{
		alert("a1", types.PriorityHigh, "healthy", time.Hour),
		alert("a2", types.PriorityHigh, "healthy", time.Hour),
		alert("a3", types.PriorityLow, "healthy", time.Hour),
	}

	lines := b.Render(alerts, clusterErrors, types.ChangeSet{})
	out := strings.Join(lines, "\n")

	// Summary counts only healthy alerts.
	assert.Equal(t, ":exclamationmark.triangle.fill: H:2 L:1", lines[0])
	// Error block present with class-specific text.
	assert.Contains(t, out, "broken: authentication failed (check api_key) | color=#EF5B58")
}

func TestErrorBlockDebugDetail(t *testing.T) {
	display := config.DefaultDisplay()
	display.Debug = true
	b := testBuilder(display)

	clusterErrors := map[string]error{
		"broken": &robusta.FetchError{
			Kind:     robusta.FailureRateLimited,
			Cluster:  "broken",
			Endpoint: "https://api.robusta.dev/api/query/report",
			Status:   429,
		},
	}
	out := strings.Join(b.Render(nil, clusterErrors, types.ChangeSet{}), "\n")
	assert.Contains(t, out, "rate limited by backend")
	assert.Contains(t, out, "https://api.robusta.dev/api/query/report (HTTP 429)")
}

func TestErrorBlockGenericError(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	out := strings.Join(b.Render(nil, map[string]error{"x": errors.New("boom")}, types.ChangeSet{}), "\n")
	assert.Contains(t, out, "x: fetch failed")
}

func TestGroupingFixedPriorityOrder(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	lines := b.Render([]types.Alert{
		alert("c", types.PriorityCritical, "prod", time.Hour),
		alert("h", types.PriorityHigh, "prod", time.Hour),
		alert("i", types.PriorityInfo, "prod", time.Hour),
	}, nil, types.ChangeSet{})

	var headers []string
	for _, l := range lines {
		if strings.Contains(l, "(1) |") {
			headers = append(headers, l)
		}
	}
	require.Len(t, headers, 3)
	assert.Contains(t, headers[0], "CRITICAL")
	assert.Contains(t, headers[1], "HIGH")
	assert.Contains(t, headers[2], "INFO")
}

func TestDisplayFlagsGateAnnotations(t *testing.T) {
	display := config.DefaultDisplay()
	display.ShowAge = false
	display.ShowNamespace = false
	display.ShowClusterInTitle = false
	b := testBuilder(display)

	out := strings.Join(b.Render([]types.Alert{alert("a", types.PriorityLow, "prod", time.Hour)}, nil, types.ChangeSet{}), "\n")
	assert.Contains(t, out, "-- a pod-1 |")
	assert.NotContains(t, out, "[prod]")
	assert.NotContains(t, out, "(1h)")
	assert.NotContains(t, out, "default/pod-1")
}

func TestStaleAlertMarkedNotExcluded(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	lines := b.Render([]types.Alert{
		alert("stale", types.PriorityHigh, "prod", 30*time.Hour),
		alert("fresh", types.PriorityHigh, "prod", time.Hour),
	}, nil, types.ChangeSet{})

	// Both counted in the summary.
	assert.Equal(t, ":exclamationmark.triangle.fill: H:2", lines[0])
	out := strings.Join(lines, "\n")
	assert.Contains(t, out, "⏳")
	var staleLine string
	for _, l := range lines {
		if strings.Contains(l, "stale") && strings.HasPrefix(l, "-- ") {
			staleLine = l
		}
	}
	assert.Contains(t, staleLine, "color=#898989")
}

func TestNoAlertsMessage(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	out := strings.Join(b.Render(nil, nil, types.ChangeSet{}), "\n")
	assert.Contains(t, out, "No unresolved alerts")
}

func TestNewSinceLastRefreshLine(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	a := alert("a", types.PriorityLow, "prod", time.Hour)
	out := strings.Join(b.Render([]types.Alert{a}, nil, types.ChangeSet{New: []types.Alert{a}}), "\n")
	assert.Contains(t, out, "1 new since last refresh")
}

func TestRenderIdempotent(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	alerts := []types.Alert{
		alert("c", types.PriorityCritical, "prod", 2*time.Hour),
		alert("l", types.PriorityLow, "staging", time.Hour),
	}
	clusterErrors := map[string]error{"x": errors.New("boom")}

	first := b.Render(alerts, clusterErrors, types.ChangeSet{})
	second := b.Render(alerts, clusterErrors, types.ChangeSet{})
	assert.Equal(t, first, second)
}

func TestCopyActionPayload(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	a := alert("KubePodCrashLooping", types.PriorityCritical, "prod", time.Hour)
	lines := b.Render([]types.Alert{a}, nil, types.ChangeSet{})

	var copyLine string
	for _, l := range lines {
		if strings.Contains(l, "Copy Alert Details") {
			copyLine = l
		}
	}
	require.NotEmpty(t, copyLine)
	assert.Contains(t, copyLine, `bash="/usr/local/bin/robustabar"`)
	assert.Contains(t, copyLine, "param1=copy")
	assert.Contains(t, copyLine, "terminal=false")

	// param2 round-trips through base64 to the copy text.
	fields := strings.Fields(copyLine)
	var payload string
	for _, f := range fields {
		if strings.HasPrefix(f, "param2=") {
			payload = strings.TrimPrefix(f, "param2=")
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, CopyText(a), string(decoded))
	assert.Contains(t, string(decoded), "Alert: KubePodCrashLooping")
	assert.Contains(t, string(decoded), "Priority: CRITICAL")
}

func TestDescriptionSentencesAndDashboardLink(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	a := alert("a", types.PriorityHigh, "prod", time.Hour)
	a.Description = "Pod is crash looping. Check recent deploys."
	a.DashboardURL = "https://x.dev/graphs?x=1"

	out := strings.Join(b.Render([]types.Alert{a}, nil, types.ChangeSet{}), "\n")
	assert.Contains(t, out, "---- Pod is crash looping. | href=https://x.dev/graphs?x=1")
	assert.Contains(t, out, "---- Check recent deploys. | href=https://x.dev/graphs?x=1")
	assert.Contains(t, out, "---- Open in Robusta | href=https://x.dev/graphs?x=1")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a b c", sanitize("a\nb\r  c "))
	assert.Equal(t, "", sanitize("\n \r"))
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t,
		[]string{"One.", "Two!", "Three?"},
		splitSentences("One. Two! Three?"))
	assert.Equal(t, []string{"No terminator here"}, splitSentences("No terminator here"))
	assert.Empty(t, splitSentences(""))
}

func TestRenderSetupAndConfigError(t *testing.T) {
	setup := RenderSetup("/tmp/config.yml")
	assert.Equal(t, ":gear.badge.exclamationmark:", setup[0])
	assert.Equal(t, "---", setup[1])

	errLines := RenderConfigError(errors.New("no clusters configured"), "/tmp/config.yml")
	out := strings.Join(errLines, "\n")
	assert.Contains(t, out, "Configuration error")
	assert.Contains(t, out, "no clusters configured")
}

func TestStartedDetailUsesRelativeTime(t *testing.T) {
	b := testBuilder(config.DefaultDisplay())
	out := strings.Join(b.Render([]types.Alert{alert("a", types.PriorityLow, "prod", 3*time.Hour)}, nil, types.ChangeSet{}), "\n")
	assert.Contains(t, out, "Started: 2024-09-02T09:00:00Z (3 hours ago)")
}
