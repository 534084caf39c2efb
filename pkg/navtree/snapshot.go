package navtree

import (
	"encoding/json"
	"fmt"
	"sync"
)

// SnapshotVersion is the current version of the snapshot format.
// Increment when making breaking changes to the format.
const SnapshotVersion = 1

// maxSnapshotDepth bounds recursion when decoding untrusted snapshots.
const maxSnapshotDepth = 512

// DecodeFunc rebuilds a destination from its JSON arguments.
type DecodeFunc func(args json.RawMessage) (Destination, error)

// DestinationCodec maps route names to destination decoders. Destinations are
// encoded with encoding/json; routes without a decoder are restored as Route
// values. A nil codec is valid and decodes everything as Route.
type DestinationCodec struct {
	mu       sync.RWMutex
	decoders map[string]DecodeFunc
}

// NewDestinationCodec creates an empty codec.
func NewDestinationCodec() *DestinationCodec {
	return &DestinationCodec{decoders: make(map[string]DecodeFunc)}
}

// Register sets the decoder for route.
func (c *DestinationCodec) Register(route string, decode DecodeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoders[route] = decode
}

// RegisterType registers a decoder that unmarshals arguments into T.
//
// Example:
//
//	codec := navtree.NewDestinationCodec()
//	navtree.RegisterType[Detail](codec, "detail")
func RegisterType[T Destination](c *DestinationCodec, route string) {
	c.Register(route, func(args json.RawMessage) (Destination, error) {
		var v T
		if len(args) > 0 {
			if err := json.Unmarshal(args, &v); err != nil {
				return nil, err
			}
		}
		return v, nil
	})
}

func (c *DestinationCodec) decode(route string, args json.RawMessage) (Destination, error) {
	if c != nil {
		c.mu.RLock()
		dec := c.decoders[route]
		c.mu.RUnlock()
		if dec != nil {
			return dec(args)
		}
	}

	r := Route{Name: route}
	if len(args) == 0 || string(args) == "null" {
		return r, nil
	}
	var generic Route
	if err := json.Unmarshal(args, &generic); err == nil && (generic.Name == route || generic.Params != nil) {
		r.Params = generic.Params
		return r, nil
	}
	var params map[string]string
	if err := json.Unmarshal(args, &params); err == nil {
		r.Params = params
	}
	return r, nil
}

// =============================================================================
// Records
// =============================================================================

type envelope struct {
	Version int             `json:"version"`
	Root    json.RawMessage `json:"root"`
}

type nodeHeader struct {
	Type string `json:"type"`
}

type destRecord struct {
	Route string          `json:"route"`
	Args  json.RawMessage `json:"args,omitempty"`
}

type screenRecord struct {
	Type        string     `json:"type"`
	Key         NodeKey    `json:"key"`
	ParentKey   NodeKey    `json:"parentKey"`
	Destination destRecord `json:"destination"`
}

type stackRecord struct {
	Type      string            `json:"type"`
	Key       NodeKey           `json:"key"`
	ParentKey NodeKey           `json:"parentKey"`
	Scope     ScopeKey          `json:"scope"`
	Children  []json.RawMessage `json:"children"`
}

type tabsRecord struct {
	Type        string            `json:"type"`
	Key         NodeKey           `json:"key"`
	ParentKey   NodeKey           `json:"parentKey"`
	Scope       ScopeKey          `json:"scope"`
	ActiveIndex int               `json:"activeIndex"`
	Lanes       []json.RawMessage `json:"lanes"`
}

type paneRecord struct {
	Role    string          `json:"role"`
	Adapt   string          `json:"adapt"`
	Content json.RawMessage `json:"content"`
}

type panesRecord struct {
	Type         string       `json:"type"`
	Key          NodeKey      `json:"key"`
	ParentKey    NodeKey      `json:"parentKey"`
	Scope        ScopeKey     `json:"scope"`
	ActiveRole   string       `json:"activeRole"`
	BackBehavior string       `json:"backBehavior"`
	Panes        []paneRecord `json:"panes"`
}

// =============================================================================
// Encoding
// =============================================================================

// MarshalSnapshot encodes root as a versioned, tagged JSON snapshot.
func MarshalSnapshot(root Node) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("navtree: marshal snapshot: nil tree")
	}
	raw, err := encodeNode(root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Version: SnapshotVersion, Root: raw})
}

func encodeNode(n Node) (json.RawMessage, error) {
	switch n := n.(type) {
	case *ScreenNode:
		rec := screenRecord{Type: KindScreen.String(), Key: n.key, ParentKey: n.parentKey}
		if n.destination != nil {
			args, err := json.Marshal(n.destination)
			if err != nil {
				return nil, fmt.Errorf("navtree: encode destination of %q: %w", n.key, err)
			}
			rec.Destination = destRecord{Route: n.destination.Route(), Args: args}
		}
		return json.Marshal(rec)

	case *StackNode:
		rec := stackRecord{
			Type:      KindStack.String(),
			Key:       n.key,
			ParentKey: n.parentKey,
			Scope:     n.scope,
			Children:  make([]json.RawMessage, 0, len(n.children)),
		}
		for _, c := range n.children {
			raw, err := encodeNode(c)
			if err != nil {
				return nil, err
			}
			rec.Children = append(rec.Children, raw)
		}
		return json.Marshal(rec)

	case *TabNode:
		rec := tabsRecord{
			Type:        KindTabs.String(),
			Key:         n.key,
			ParentKey:   n.parentKey,
			Scope:       n.scope,
			ActiveIndex: n.activeIndex,
			Lanes:       make([]json.RawMessage, 0, len(n.lanes)),
		}
		for _, lane := range n.lanes {
			raw, err := encodeNode(lane)
			if err != nil {
				return nil, err
			}
			rec.Lanes = append(rec.Lanes, raw)
		}
		return json.Marshal(rec)

	case *PaneNode:
		rec := panesRecord{
			Type:         KindPanes.String(),
			Key:          n.key,
			ParentKey:    n.parentKey,
			Scope:        n.scope,
			ActiveRole:   n.activeRole.String(),
			BackBehavior: n.backBehavior.String(),
		}
		for _, role := range n.Roles() {
			cfg := n.panes[role]
			raw, err := encodeNode(cfg.Content)
			if err != nil {
				return nil, err
			}
			rec.Panes = append(rec.Panes, paneRecord{
				Role:    role.String(),
				Adapt:   cfg.Adapt.String(),
				Content: raw,
			})
		}
		return json.Marshal(rec)

	default:
		unknownNode(n)
		return nil, nil
	}
}

// =============================================================================
// Decoding
// =============================================================================

// UnmarshalSnapshot decodes a snapshot produced by MarshalSnapshot. Unknown
// JSON fields are ignored. Snapshots that are malformed or that describe a
// structurally invalid tree return an error wrapping ErrInvalidSnapshot.
func UnmarshalSnapshot(data []byte, codec *DestinationCodec) (Node, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if env.Version < 1 || env.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, env.Version)
	}
	if len(env.Root) == 0 || string(env.Root) == "null" {
		return nil, fmt.Errorf("%w: missing root", ErrInvalidSnapshot)
	}

	root, err := decodeNode(env.Root, codec, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := Validate(root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return root, nil
}

// Restore decodes a snapshot and returns nil when there is no restorable
// state, whatever the reason.
func Restore(data []byte, codec *DestinationCodec) Node {
	if len(data) == 0 {
		return nil
	}
	root, err := UnmarshalSnapshot(data, codec)
	if err != nil {
		return nil
	}
	return root
}

func decodeNode(raw json.RawMessage, codec *DestinationCodec, depth int) (Node, error) {
	if depth > maxSnapshotDepth {
		return nil, fmt.Errorf("tree deeper than %d", maxSnapshotDepth)
	}
	var h nodeHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}

	switch h.Type {
	case KindScreen.String():
		var rec screenRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		dest, err := codec.decode(rec.Destination.Route, rec.Destination.Args)
		if err != nil {
			return nil, fmt.Errorf("decode destination of %q: %w", rec.Key, err)
		}
		return &ScreenNode{key: rec.Key, parentKey: rec.ParentKey, destination: dest}, nil

	case KindStack.String():
		var rec stackRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		s := &StackNode{key: rec.Key, parentKey: rec.ParentKey, scope: rec.Scope}
		for _, c := range rec.Children {
			child, err := decodeNode(c, codec, depth+1)
			if err != nil {
				return nil, err
			}
			s.children = append(s.children, child)
		}
		return s, nil

	case KindTabs.String():
		var rec tabsRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		t := &TabNode{key: rec.Key, parentKey: rec.ParentKey, scope: rec.Scope, activeIndex: rec.ActiveIndex}
		for _, l := range rec.Lanes {
			child, err := decodeNode(l, codec, depth+1)
			if err != nil {
				return nil, err
			}
			lane, ok := child.(*StackNode)
			if !ok {
				return nil, structural("decode", child.Key(), ErrWrongNodeType)
			}
			t.lanes = append(t.lanes, lane)
		}
		return t, nil

	case KindPanes.String():
		var rec panesRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		active, err := ParsePaneRole(rec.ActiveRole)
		if err != nil {
			return nil, err
		}
		p := &PaneNode{
			key:        rec.Key,
			parentKey:  rec.ParentKey,
			scope:      rec.Scope,
			activeRole: active,
			panes:      make(map[PaneRole]PaneConfig, len(rec.Panes)),
		}
		if rec.BackBehavior != "" {
			if p.backBehavior, err = ParsePaneBackBehavior(rec.BackBehavior); err != nil {
				return nil, err
			}
		}
		for _, pr := range rec.Panes {
			role, err := ParsePaneRole(pr.Role)
			if err != nil {
				return nil, err
			}
			if _, dup := p.panes[role]; dup {
				return nil, structural("decode", rec.Key, ErrInvalidPaneRole)
			}
			adapt, err := ParseAdaptStrategy(pr.Adapt)
			if err != nil {
				return nil, err
			}
			content, err := decodeNode(pr.Content, codec, depth+1)
			if err != nil {
				return nil, err
			}
			p.panes[role] = PaneConfig{Content: content, Adapt: adapt}
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown node type %q", h.Type)
	}
}
