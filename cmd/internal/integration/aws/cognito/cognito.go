// Package cognitoclient wraps the AWS Cognito user pool that acts as the
// external identity provider. It only verifies credentials and manages
// signups; session tokens for this API are issued locally by the token
// package once Cognito has authenticated the user.
package cognitoclient

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type User struct {
	Email    string
	Password string
}

type UserLogin struct {
	Email    string
	Password string
}

type UserConfirmation struct {
	Email string
	Code  string
}

type AuthCreate struct {
	AccessToken string
	IDToken     string
}

type CognitoInterface interface {
	SignUp(user *User) (string, error)
	SignIn(login *UserLogin) (*AuthCreate, error)
	ConfirmAccount(confirmation *UserConfirmation) error
	AdminDeleteUser(email string) error
}

type cognitoClient struct {
	client     *cognitoidentityprovider.Client
	clientId   string
	userPoolId string
}

func InitCognitoClient() (CognitoInterface, error) {
	clientId := os.Getenv("COGNITO_CLIENT_ID")
	userPoolId := os.Getenv("COGNITO_USER_POOL_ID")
	if clientId == "" || userPoolId == "" {
		return nil, errors.New("COGNITO_CLIENT_ID and COGNITO_USER_POOL_ID must be set")
	}

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, err
	}

	return &cognitoClient{
		client:     cognitoidentityprovider.NewFromConfig(cfg),
		clientId:   clientId,
		userPoolId: userPoolId,
	}, nil
}

// SignUp registers the user with Cognito and returns the pool-assigned
// subject UUID. Cognito sends the confirmation code email itself.
func (c *cognitoClient) SignUp(user *User) (string, error) {
	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(c.clientId),
		Username: aws.String(user.Email),
		Password: aws.String(user.Password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(user.Email)},
		},
	}

	out, err := c.client.SignUp(context.Background(), input)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.UserSub), nil
}

func (c *cognitoClient) SignIn(login *UserLogin) (*AuthCreate, error) {
	input := &cognitoidentityprovider.InitiateAuthInput{
		ClientId: aws.String(c.clientId),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": login.Email,
			"PASSWORD": login.Password,
		},
	}

	out, err := c.client.InitiateAuth(context.Background(), input)
	if err != nil {
		return nil, err
	}

	if out.AuthenticationResult == nil {
		return nil, errors.New("cognito returned no authentication result")
	}

	return &AuthCreate{
		AccessToken: aws.ToString(out.AuthenticationResult.AccessToken),
		IDToken:     aws.ToString(out.AuthenticationResult.IdToken),
	}, nil
}

func (c *cognitoClient) ConfirmAccount(confirmation *UserConfirmation) error {
	input := &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientId),
		Username:         aws.String(confirmation.Email),
		ConfirmationCode: aws.String(confirmation.Code),
	}

	_, err := c.client.ConfirmSignUp(context.Background(), input)
	return err
}

// AdminDeleteUser removes a user from the pool. Used to revert a signup
// when the local profile insert fails afterwards.
func (c *cognitoClient) AdminDeleteUser(email string) error {
	input := &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(c.userPoolId),
		Username:   aws.String(email),
	}

	_, err := c.client.AdminDeleteUser(context.Background(), input)
	return err
}
