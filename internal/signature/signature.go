// Package signature builds deterministic digests of behavioral profiles.
//
// The digest is SHA-256 over a canonical JSON encoding: map keys are
// serialized in lexicographic order, so two semantically equal inputs
// always hash identically regardless of construction order.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kinetiq-id/kinetiq/internal/features"
)

// Build computes the signature for a mobile profile: typing rhythm,
// touch patterns and the device identifier. Returns the 64-char hex
// digest, or an error if the payload cannot be canonicalized.
func Build(v *features.Vector, deviceID string) (string, error) {
	payload := map[string]any{
		"typing_rhythm":  v.Typing,
		"touch_patterns": v.Touch,
		"device_id":      deviceID,
	}
	return digest(payload)
}

// BuildWeb computes the signature for a web profile: typing rhythm,
// mouse dynamics, scroll behavior and the browser fingerprint.
func BuildWeb(v *features.Vector) (string, error) {
	payload := map[string]any{
		"typing_rhythm":   v.Typing,
		"mouse_dynamics":  v.Mouse,
		"scroll_behavior": v.Scroll,
	}
	if v.Browser != nil {
		payload["browser_fingerprint"] = map[string]any{
			"user_agent":           v.Browser.UserAgent,
			"language":             v.Browser.Language,
			"platform":             v.Browser.Platform,
			"hardware_concurrency": v.Browser.HardwareConcurrency,
			"device_memory":        v.Browser.DeviceMemory,
			"screen_resolution":    v.Browser.ScreenResolution,
			"timezone":             v.Browser.Timezone,
			"canvas_fingerprint":   v.Browser.CanvasFingerprint,
			"webgl_fingerprint":    v.Browser.WebGLFingerprint,
		}
	}
	return digest(payload)
}

// digest canonicalizes and hashes a payload.
func digest(payload map[string]any) (string, error) {
	canonical, err := marshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("signature: canonicalize: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// marshalCanonical encodes v as JSON with all object keys sorted.
// encoding/json already sorts map keys, but nested non-map values could
// carry maps behind interfaces, so everything is normalized first.
func marshalCanonical(v any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// normalize round-trips v through generic JSON types so the final
// marshal sees only maps, slices and scalars.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return sortKeys(out), nil
}

func sortKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[k] = sortKeys(t[k])
		}
		return out
	case []any:
		for i := range t {
			t[i] = sortKeys(t[i])
		}
		return t
	}
	return v
}
