package unity

import (
	"strconv"

	"github.com/pixil98/go-roomwatch/internal/protocol"
)

// EncodeEntities builds a users-in-room payload. It is the inverse of
// Decoder.ParseEntities and is used to inject recorded rooms.
func EncodeEntities(entities []Entity) []byte {
	w := protocol.NewPacketWriter().WriteInt32(int32(len(entities)))
	for _, e := range entities {
		w.WriteInt64(e.ID).
			WriteString(e.Name).
			WriteString(e.Motto).
			WriteString(e.Figure).
			WriteInt32(e.Index)
		writeTile(w, e.Tile)
		w.WriteInt32(e.BodyDirection).
			WriteInt32(int32(e.Type))

		switch e.Type {
		case EntityTypeUser:
			w.WriteString(e.Gender)
		case EntityTypePet:
			w.WriteInt32(0)
		}
	}
	return w.Bytes()
}

// EncodeStatusUpdates builds a status payload.
func EncodeStatusUpdates(updates []StatusUpdate) []byte {
	w := protocol.NewPacketWriter().WriteInt32(int32(len(updates)))
	for _, u := range updates {
		w.WriteInt32(u.Index)
		writeTile(w, u.Tile)
		w.WriteInt32(u.HeadDirection).
			WriteInt32(u.BodyDirection).
			WriteString(u.Action)
	}
	return w.Bytes()
}

// EncodeIndex builds a user-logged-out payload.
func EncodeIndex(index int32) []byte {
	return protocol.NewPacketWriter().WriteInt32(index).Bytes()
}

func writeTile(w *protocol.PacketWriter, t Tile) {
	w.WriteInt32(t.X).
		WriteInt32(t.Y).
		WriteString(strconv.FormatFloat(t.Z, 'f', -1, 64))
}
