package unity

import (
	"fmt"
	"strconv"
	"strings"
)

type EntityType int32

const (
	EntityTypeUser EntityType = iota + 1
	EntityTypePet
	EntityTypeBot
	EntityTypeRentableBot
)

func (t EntityType) String() string {
	switch t {
	case EntityTypeUser:
		return "user"
	case EntityTypePet:
		return "pet"
	case EntityTypeBot:
		return "bot"
	case EntityTypeRentableBot:
		return "rentable bot"
	default:
		return fmt.Sprintf("type(%d)", int32(t))
	}
}

func (t EntityType) valid() bool {
	return t >= EntityTypeUser && t <= EntityTypeRentableBot
}

// Tile is a position on the room floor plan.
type Tile struct {
	X int32
	Y int32
	Z float64
}

func (t Tile) String() string {
	return fmt.Sprintf("%d,%d,%s", t.X, t.Y, strconv.FormatFloat(t.Z, 'f', -1, 64))
}

// Entity is one occupant of the current room, keyed by Index.
type Entity struct {
	Index  int32
	ID     int64
	Name   string
	Motto  string
	Figure string
	Type   EntityType
	Gender string

	Tile          Tile
	NextTile      *Tile
	HeadDirection int32
	BodyDirection int32
	Action        string
}

// Clone returns a copy that shares no memory with e.
func (e *Entity) Clone() Entity {
	c := *e
	if e.NextTile != nil {
		next := *e.NextTile
		c.NextTile = &next
	}
	return c
}

// TryUpdate copies the movement fields of u into e. Identity fields are
// never touched. Returns false without changes when u targets another index.
func (e *Entity) TryUpdate(u StatusUpdate) bool {
	if u.Index != e.Index {
		return false
	}

	e.Tile = u.Tile
	e.HeadDirection = u.HeadDirection
	e.BodyDirection = u.BodyDirection
	e.Action = u.Action
	e.NextTile = nil
	if u.NextTile != nil {
		next := *u.NextTile
		e.NextTile = &next
	}
	return true
}

func (e *Entity) String() string {
	return fmt.Sprintf("<%s #%d %q at %s>", e.Type, e.Index, e.Name, e.Tile)
}

// StatusUpdate carries the new movement state for a single entity.
type StatusUpdate struct {
	Index         int32
	Tile          Tile
	NextTile      *Tile
	HeadDirection int32
	BodyDirection int32
	Action        string
}

// parseNextTile extracts the destination from an action string such as
// "/flatctrl 4/mv 3,5,0.0//". Returns nil if there is no mv segment.
func parseNextTile(action string) *Tile {
	for _, part := range strings.Split(action, "/") {
		verb, args, ok := strings.Cut(strings.TrimSpace(part), " ")
		if !ok || verb != "mv" {
			continue
		}
		coords := strings.Split(args, ",")
		if len(coords) != 3 {
			return nil
		}
		x, errX := strconv.ParseInt(coords[0], 10, 32)
		y, errY := strconv.ParseInt(coords[1], 10, 32)
		z, errZ := strconv.ParseFloat(coords[2], 64)
		if errX != nil || errY != nil || errZ != nil {
			return nil
		}
		return &Tile{X: int32(x), Y: int32(y), Z: z}
	}
	return nil
}
