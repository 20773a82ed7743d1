package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	constraintOneVotePerVoter = "votes_poll_id_voter_id_key"
	constraintOptionInPoll    = "votes_option_belongs_to_poll"
)

func pqCode(err error) (pq.ErrorCode, string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, pqErr.Constraint
	}
	return "", ""
}

func isViolation(err error, code pq.ErrorCode, constraint string) bool {
	c, name := pqCode(err)
	return c == code && name == constraint
}
