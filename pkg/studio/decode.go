package studio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ErrUnknownLayout is returned for layout names that are not in Layouts.
var ErrUnknownLayout = errors.New("studio: unknown layout")

type normalizer[T any] interface {
	Layout
	Normalize() T
}

// Default returns the starting state of the named layout.
func Default(name LayoutName) (Layout, error) {
	return Decode(name, nil)
}

// Decode overlays a JSON object onto the named layout's defaults and
// normalizes the result. Empty data yields the defaults.
func Decode(name LayoutName, data []byte) (Layout, error) {
	switch name {
	case EpisodeReleaseLayout:
		return decodeJSON(DefaultEpisodeRelease(), data)
	case HighlightCoverLayout:
		return decodeJSON(DefaultHighlightCover(), data)
	case EventAnnouncementLayout:
		return decodeJSON(DefaultEventAnnouncement(), data)
	case ViewerStatsLayout:
		return decodeJSON(DefaultViewerStats(), data)
	case VideoOverlayLayout:
		return decodeJSON(DefaultVideoOverlay(), data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
}

// DecodeValues is Decode for loosely typed values such as URL query
// parameters: strings are converted to numbers and booleans, and single
// values to one-element lists.
func DecodeValues(name LayoutName, values map[string]any) (Layout, error) {
	switch name {
	case EpisodeReleaseLayout:
		return decodeValues(DefaultEpisodeRelease(), values)
	case HighlightCoverLayout:
		return decodeValues(DefaultHighlightCover(), values)
	case EventAnnouncementLayout:
		return decodeValues(DefaultEventAnnouncement(), values)
	case ViewerStatsLayout:
		return decodeValues(DefaultViewerStats(), values)
	case VideoOverlayLayout:
		return decodeValues(DefaultVideoOverlay(), values)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
}

func decodeJSON[T normalizer[T]](v T, data []byte) (Layout, error) {
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode %s layout: %w", v.LayoutName(), err)
		}
	}
	return v.Normalize(), nil
}

func decodeValues[T normalizer[T]](v T, values map[string]any) (Layout, error) {
	if len(values) == 0 {
		return v.Normalize(), nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &v,
		WeaklyTypedInput: true,
		// Lists replace the defaults instead of being merged into them.
		ZeroFields: true,
	})
	if err != nil {
		return nil, err
	}
	if err = dec.Decode(values); err != nil {
		return nil, fmt.Errorf("failed to decode %s layout: %w", v.LayoutName(), err)
	}
	return v.Normalize(), nil
}
