package unity

import (
	"errors"
	"testing"

	"github.com/pixil98/go-roomwatch/internal/protocol"
	"github.com/pixil98/go-testutil"
)

func TestDecoder_ParseEntities(t *testing.T) {
	d := NewDecoder()

	entities := []Entity{
		{Index: 1, ID: 1001, Name: "alice", Motto: "hi", Figure: "hd-180", Type: EntityTypeUser, Gender: "F", Tile: Tile{X: 3, Y: 4, Z: 0.5}, BodyDirection: 2, HeadDirection: 2},
		{Index: 2, ID: 2002, Name: "rex", Type: EntityTypePet, Tile: Tile{X: 1, Y: 1}, BodyDirection: 4, HeadDirection: 4},
		{Index: 3, ID: 3003, Name: "frank", Type: EntityTypeBot, Tile: Tile{X: 0, Y: 7, Z: 1}},
	}

	got, err := d.ParseEntities(EncodeEntities(entities))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "count", len(got), len(entities))
	for i := range entities {
		testutil.AssertEqual(t, "index", got[i].Index, entities[i].Index)
		testutil.AssertEqual(t, "id", got[i].ID, entities[i].ID)
		testutil.AssertEqual(t, "name", got[i].Name, entities[i].Name)
		testutil.AssertEqual(t, "type", got[i].Type, entities[i].Type)
		testutil.AssertEqual(t, "gender", got[i].Gender, entities[i].Gender)
		testutil.AssertEqual(t, "tile", got[i].Tile, entities[i].Tile)
		testutil.AssertEqual(t, "body direction", got[i].BodyDirection, entities[i].BodyDirection)
		testutil.AssertEqual(t, "head direction", got[i].HeadDirection, entities[i].BodyDirection)
	}
}

func TestDecoder_ParseEntities_Errors(t *testing.T) {
	d := NewDecoder()

	valid := EncodeEntities([]Entity{{Index: 1, Name: "alice", Type: EntityTypeUser}})

	tests := map[string]struct {
		payload []byte
		expErr  string
	}{
		"empty payload": {
			payload: nil,
			expErr:  "decoding entities: count",
		},
		"negative count": {
			payload: protocol.NewPacketWriter().WriteInt32(-1).Bytes(),
			expErr:  "count -1 out of range",
		},
		"truncated record": {
			payload: valid[:len(valid)-2],
			expErr:  "entity 0",
		},
		"unknown type": {
			payload: EncodeEntities([]Entity{{Index: 1, Type: EntityType(42)}}),
			expErr:  "unknown entity type 42",
		},
		"bad z": {
			payload: protocol.NewPacketWriter().
				WriteInt32(1).
				WriteInt64(1).WriteString("").WriteString("").WriteString("").
				WriteInt32(1).WriteInt32(0).WriteInt32(0).WriteString("high").
				Bytes(),
			expErr: `parsing z "high"`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := d.ParseEntities(tt.payload)
			testutil.AssertErrorContains(t, err, tt.expErr)

			var de *DecodeError
			if !errors.As(err, &de) {
				t.Errorf("expected *DecodeError, got %T", err)
			}
		})
	}
}

func TestDecoder_ParseStatusUpdates(t *testing.T) {
	d := NewDecoder()

	payload := EncodeStatusUpdates([]StatusUpdate{
		{Index: 1, Tile: Tile{X: 5, Y: 0, Z: 0}, HeadDirection: 3, BodyDirection: 4, Action: "/mv 6,0,0.0//"},
		{Index: 2, Tile: Tile{X: 1, Y: 1, Z: 1.25}, Action: "/sit 1.0//"},
	})

	got, err := d.ParseStatusUpdates(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "count", len(got), 2)
	testutil.AssertEqual(t, "first index", got[0].Index, int32(1))
	testutil.AssertEqual(t, "first tile", got[0].Tile, Tile{X: 5})
	testutil.AssertEqual(t, "first head", got[0].HeadDirection, int32(3))
	testutil.AssertEqual(t, "first body", got[0].BodyDirection, int32(4))
	if got[0].NextTile == nil {
		t.Fatal("expected next tile for walking entity")
	}
	testutil.AssertEqual(t, "first next tile", *got[0].NextTile, Tile{X: 6})

	testutil.AssertEqual(t, "second tile", got[1].Tile, Tile{X: 1, Y: 1, Z: 1.25})
	if got[1].NextTile != nil {
		t.Errorf("expected no next tile, got %v", got[1].NextTile)
	}
}

func TestDecoder_ParseStatusUpdates_Truncated(t *testing.T) {
	d := NewDecoder()

	payload := EncodeStatusUpdates([]StatusUpdate{{Index: 1, Action: "/"}})

	_, err := d.ParseStatusUpdates(payload[:len(payload)-1])
	testutil.AssertErrorContains(t, err, "update 0")
	if !errors.Is(err, protocol.ErrShortRead) {
		t.Errorf("expected ErrShortRead, got %v", err)
	}
}

func TestDecoder_ParseIndex(t *testing.T) {
	d := NewDecoder()

	idx, err := d.ParseIndex(EncodeIndex(77))
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "index", idx, int32(77))

	_, err = d.ParseIndex([]byte{1, 2})
	testutil.AssertErrorContains(t, err, "decoding index")
}
