package cmd

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"         // AWS SDK helpers.
	"github.com/aws/aws-sdk-go/aws/session" // AWS sessions.
)

// AWSFlags represents a set of flags for connecting to AWS.
type AWSFlags struct {
	// Name of AWS region to use.
	Region string

	// Name of a shared AWS credentials profile to use.
	Profile string

	// Max number of retries to attempt on connection error.
	MaxRetries int
}

// NewAWSFlags returns a new AWSFlags.
func NewAWSFlags(app Flagger, maxRetries int) *AWSFlags {
	var f AWSFlags

	app.Flag("aws.region", "Name of AWS region to use.").
		PlaceHolder("REGION_NAME").
		StringVar(&f.Region)

	app.Flag("aws.profile", "Name of AWS credentials profile to use.").
		PlaceHolder("PROFILE_NAME").
		StringVar(&f.Profile)

	app.Flag("aws.max-retries", "Max number of retries to attempt on connection failure.").
		Hidden().
		Default(strconv.Itoa(maxRetries)).
		IntVar(&f.MaxRetries)

	return &f
}

// Options returns the session options for these flags.
func (f *AWSFlags) Options() session.Options {
	cfg := aws.NewConfig().WithMaxRetries(f.MaxRetries)
	if f.Region != "" {
		cfg = cfg.WithRegion(f.Region)
	}
	return session.Options{
		Config:            *cfg,
		Profile:           f.Profile,
		SharedConfigState: session.SharedConfigEnable,
	}
}

// NewSession returns a new AWS session configured from the shared
// AWS config and these flags.
func (f *AWSFlags) NewSession() (*session.Session, error) {
	return session.NewSessionWithOptions(f.Options())
}
