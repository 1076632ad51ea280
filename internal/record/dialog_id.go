package record

import "fmt"

// GroupPeerOffset separates group chats from individual peers in the
// combined peer id space: peer ids at or above it address chat
// (peer - GroupPeerOffset).
const GroupPeerOffset int64 = 2000000000

// DialogID identifies a conversation. Two messages belong to the same
// dialog iff their DialogIDs are equal.
type DialogID struct {
	Group bool
	ID    int64
}

// PeerDialogID converts a combined peer id into a DialogID.
func PeerDialogID(peerID int64) DialogID {
	if peerID >= GroupPeerOffset {
		return DialogID{Group: true, ID: peerID - GroupPeerOffset}
	}
	return DialogID{Group: false, ID: peerID}
}

// PeerID is the inverse of PeerDialogID.
func (d DialogID) PeerID() int64 {
	if d.Group {
		return d.ID + GroupPeerOffset
	}
	return d.ID
}

func (d DialogID) String() string {
	if d.Group {
		return fmt.Sprintf("groupchat_%d", d.ID)
	}
	return fmt.Sprintf("userchat_%d", d.ID)
}

// Conversation is one entry of the remote conversation list.
type Conversation struct {
	PeerID int64
	Title  string
}

func (c Conversation) DialogID() DialogID { return PeerDialogID(c.PeerID) }
