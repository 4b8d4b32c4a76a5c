package fixgateway

import (
	"errors"

	"github.com/quickfixgo/quickfix"
)

var errSessionNotFound = errors.New("session not found")

// AddRequestToMap remembers which session sent clOrdID so reports find their
// way back. It returns false, leaving the mapping untouched, when clOrdID is
// already live for any session.
func (s *FixGateway) AddRequestToMap(clOrdID string, sessionID quickfix.SessionID) bool {
	_, loaded := s.sessionMapping.LoadOrStore(clOrdID, sessionID)
	return !loaded
}

func (s *FixGateway) GetSessionByClOrdID(clOrdID string) (quickfix.SessionID, error) {
	v, ok := s.sessionMapping.Load(clOrdID)
	if !ok {
		return quickfix.SessionID{}, errSessionNotFound
	}

	return v.(quickfix.SessionID), nil
}

func (s *FixGateway) DeleteRequest(clOrdIDs ...string) {
	for _, id := range clOrdIDs {
		if id != "" {
			s.sessionMapping.Delete(id)
		}
	}
}
