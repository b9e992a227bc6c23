package campaigns

import "errors"

var (
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrCampaignNotStarted      = errors.New("campaign has not started yet")
	ErrCampaignCancelled       = errors.New("campaign is cancelled")
	ErrCampaignAlreadyFinished = errors.New("campaign has already finished")
	ErrInvalidCampaign         = errors.New("campaign is not valid")
	ErrUserNotParticipating    = errors.New("user is not participating in campaign")
)
