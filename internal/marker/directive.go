package marker

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies which overlay directive a marker carries.
type Kind string

const (
	KindImageStart  Kind = "ImgStart"
	KindImageEnd    Kind = "ImgEnd"
	KindScriptStart Kind = "JsStart"
	KindScriptEnd   Kind = "JsEnd"
)

// Directive is the closed set of overlay instructions a marker can carry.
type Directive interface {
	Kind() Kind
	isDirective()
}

// Rect is an overlay placement in output pixels.
type Rect struct {
	X, Y, W, H int
}

// ImageStart shows the asset named by Slug inside Rect.
type ImageStart struct {
	Slug string
	Rect Rect
}

// ImageEnd hides every overlay opened under the same uuid.
type ImageEnd struct{}

// ScriptStart is reserved for scripted overlays. Applying it fails.
type ScriptStart struct {
	Args json.RawMessage
}

// ScriptEnd closes a scripted overlay.
type ScriptEnd struct{}

func (ImageStart) Kind() Kind  { return KindImageStart }
func (ImageEnd) Kind() Kind    { return KindImageEnd }
func (ScriptStart) Kind() Kind { return KindScriptStart }
func (ScriptEnd) Kind() Kind   { return KindScriptEnd }

func (ImageStart) isDirective()  {}
func (ImageEnd) isDirective()    {}
func (ScriptStart) isDirective() {}
func (ScriptEnd) isDirective()   {}

// tag aliases accepted on input
var kindAliases = map[string]Kind{
	"ImgStart":    KindImageStart,
	"ImgEnd":      KindImageEnd,
	"JsStart":     KindScriptStart,
	"JsEnd":       KindScriptEnd,
	"ScriptStart": KindScriptStart,
	"ScriptEnd":   KindScriptEnd,
}

// decodeDirective reads an externally tagged directive: either a bare tag
// string for unit variants or a single-key object.
func decodeDirective(raw json.RawMessage) (Directive, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing info")
	}

	if raw[0] == '"' {
		var tag string
		if err := json.Unmarshal(raw, &tag); err != nil {
			return nil, fmt.Errorf("decode info tag: %w", err)
		}
		return unitDirective(tag)
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, fmt.Errorf("decode info: %w", err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("info must have exactly one variant, got %d", len(tagged))
	}

	for tag, body := range tagged {
		kind, ok := kindAliases[tag]
		if !ok {
			return nil, fmt.Errorf("unknown info variant %q", tag)
		}
		switch kind {
		case KindImageStart:
			return decodeImageStart(body)
		case KindScriptStart:
			return ScriptStart{Args: append(json.RawMessage(nil), body...)}, nil
		default:
			if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
				return nil, fmt.Errorf("variant %q takes no value", tag)
			}
			return unitDirective(tag)
		}
	}
	return nil, fmt.Errorf("missing info")
}

func unitDirective(tag string) (Directive, error) {
	switch kindAliases[tag] {
	case KindImageEnd:
		return ImageEnd{}, nil
	case KindScriptEnd:
		return ScriptEnd{}, nil
	case KindImageStart, KindScriptStart:
		return nil, fmt.Errorf("variant %q requires a value", tag)
	default:
		return nil, fmt.Errorf("unknown info variant %q", tag)
	}
}

func decodeImageStart(body json.RawMessage) (Directive, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, fmt.Errorf("ImgStart: %w", err)
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("ImgStart: want [slug, [x, y, w, h]], got %d elements", len(parts))
	}

	var slug string
	if err := json.Unmarshal(parts[0], &slug); err != nil {
		return nil, fmt.Errorf("ImgStart slug: %w", err)
	}
	var rect []int
	if err := json.Unmarshal(parts[1], &rect); err != nil {
		return nil, fmt.Errorf("ImgStart rect: %w", err)
	}
	if len(rect) != 4 {
		return nil, fmt.Errorf("ImgStart rect: want 4 values, got %d", len(rect))
	}
	for _, v := range rect {
		if v < 0 {
			return nil, fmt.Errorf("ImgStart rect: negative value %d", v)
		}
	}

	return ImageStart{
		Slug: slug,
		Rect: Rect{X: rect[0], Y: rect[1], W: rect[2], H: rect[3]},
	}, nil
}

// EncodeDirective renders d in the inline marker format.
func EncodeDirective(d Directive) (json.RawMessage, error) {
	switch v := d.(type) {
	case ImageStart:
		return json.Marshal(map[string]any{
			string(KindImageStart): []any{v.Slug, []int{v.Rect.X, v.Rect.Y, v.Rect.W, v.Rect.H}},
		})
	case ScriptStart:
		args := v.Args
		if len(args) == 0 {
			args = json.RawMessage("null")
		}
		return json.Marshal(map[string]json.RawMessage{string(KindScriptStart): args})
	case ImageEnd, ScriptEnd:
		return json.Marshal(string(v.Kind()))
	default:
		return nil, fmt.Errorf("unsupported directive %T", d)
	}
}
