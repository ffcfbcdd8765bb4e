package deploy

import "errors"

var (
	// ErrUnknownUser is returned when a user id is not in the directory.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUnknownServer is returned when a hostname is not on the board.
	ErrUnknownServer = errors.New("unknown server")

	// ErrMissingUser is returned by Deploy when no user is selected.
	ErrMissingUser = errors.New("a user must be selected")

	// ErrMissingBranch is returned by Deploy when the branch is empty.
	ErrMissingBranch = errors.New("a branch must be set")

	// ErrDeployInProgress is returned by Deploy while a countdown is running.
	ErrDeployInProgress = errors.New("deploy already in progress")

	// ErrCardClosed is returned by any operation on a closed card.
	ErrCardClosed = errors.New("card is closed")
)
