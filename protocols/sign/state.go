package sign

import (
	"encoding/binary"

	"github.com/erik-3milabs/dwallet-network/pkg/party"
	"github.com/erik-3milabs/dwallet-network/pkg/tiresias"
)

// SignState accumulates one signing session: the message batch the
// aggregator will complete, and the first-round contributions collected from
// every party. A state outlives the round object and is what the network
// layer feeds as messages arrive.
type SignState struct {
	epoch             uint64
	partyID           party.ID
	parties           party.IDSlice
	aggregatorPartyID party.ID
	publicParameters  *tiresias.PublicParameters

	// messages and partialSignatures are nil until Set is called; nil is
	// the only "unset" representation, an empty batch is stored non-nil.
	messages          [][]byte
	partialSignatures []*PublicNonceEncryptedPartialSignatureAndProof

	shares map[party.ID][]DecryptionShares
	proofs map[party.ID][]*tiresias.DecryptionProof
}

// NewSignState creates the state for one session. The aggregator is derived
// from the session ID so all parties agree on it without interaction.
// parties must be non-empty.
func NewSignState(publicParameters *tiresias.PublicParameters, epoch uint64, partyID party.ID, parties party.IDSlice, sessionID SessionID) *SignState {
	parties = party.NewIDSlice(parties)
	return &SignState{
		epoch:             epoch,
		partyID:           partyID,
		parties:           parties,
		aggregatorPartyID: aggregatorPartyID(sessionID, len(parties)),
		publicParameters:  publicParameters,
		shares:            map[party.ID][]DecryptionShares{},
		proofs:            map[party.ID][]*tiresias.DecryptionProof{},
	}
}

// aggregatorPartyID maps a session ID onto one of the party IDs 1..n.
func aggregatorPartyID(sessionID SessionID, n int) party.ID {
	return party.ID(binary.BigEndian.Uint64(sessionID[:8])%uint64(n) + 1)
}

// Set records the batch this session signs. A nil batch is normalized to an
// empty one, so a set state is always distinguishable from a fresh one.
func (s *SignState) Set(messages [][]byte, partialSignatures []*PublicNonceEncryptedPartialSignatureAndProof) {
	if messages == nil {
		messages = [][]byte{}
	}
	if partialSignatures == nil {
		partialSignatures = []*PublicNonceEncryptedPartialSignatureAndProof{}
	}
	s.messages = messages
	s.partialSignatures = partialSignatures
}

// InsertFirstRound stores a party's first-round contribution, replacing any
// earlier one from the same party. Contributions are not verified here;
// verification happens when the aggregator completes the round, so that a
// malformed contribution can name its sender.
func (s *SignState) InsertFirstRound(from party.ID, message *FirstRoundMessage) error {
	if err := message.validate(); err != nil {
		return err
	}
	s.shares[from] = message.Shares
	s.proofs[from] = message.Proofs
	return nil
}

// ReadyForCompleteFirstRound reports whether this party should complete the
// round now: it is the session's aggregator, the round was started and not
// yet consumed, and every party's contribution has arrived.
func (s *SignState) ReadyForCompleteFirstRound(round *SignRound) bool {
	return round != nil && round.started() &&
		s.partyID == s.aggregatorPartyID &&
		len(s.shares) == len(s.parties) &&
		len(s.proofs) == len(s.parties)
}

// PartyID returns the local party's ID.
func (s *SignState) PartyID() party.ID { return s.partyID }

// Parties returns the session's party set.
func (s *SignState) Parties() party.IDSlice { return s.parties }

// AggregatorPartyID returns the party designated to complete this session.
func (s *SignState) AggregatorPartyID() party.ID { return s.aggregatorPartyID }

// Epoch returns the committee epoch this session runs in.
func (s *SignState) Epoch() uint64 { return s.epoch }
