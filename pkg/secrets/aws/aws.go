// Copyright 2018-2024 CERN
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// In applying this license, CERN does not waive the privileges and immunities
// granted to it by virtue of its status as an Intergovernmental Organization
// or submit itself to any jurisdiction.

// Package aws provides a secret manager backed by AWS Secrets Manager.
package aws

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/docbox-eu/docbox/pkg/secrets"
	"github.com/pkg/errors"
)

// Manager stores secrets in AWS Secrets Manager. An optional default secret
// name, taken from DOCBOX_SECRET_MANAGER_DEFAULT, is used when a lookup
// misses.
type Manager struct {
	client      *secretsmanager.Client
	defaultName string
}

// New returns a secret manager using the given client.
func New(client *secretsmanager.Client) *Manager {
	return &Manager{
		client:      client,
		defaultName: os.Getenv("DOCBOX_SECRET_MANAGER_DEFAULT"),
	}
}

// GetSecret implements secrets.Manager.
func (m *Manager) GetSecret(ctx context.Context, name string) (*secrets.Secret, error) {
	secret, err := m.getSecret(ctx, name)
	if err != nil {
		return nil, err
	}
	if secret == nil && m.defaultName != "" && name != m.defaultName {
		return m.getSecret(ctx, m.defaultName)
	}
	return secret, nil
}

func (m *Manager) getSecret(ctx context.Context, name string) (*secrets.Secret, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting secret value")
	}

	if out.SecretString != nil {
		return &secrets.Secret{String: *out.SecretString}, nil
	}
	if out.SecretBinary != nil {
		return &secrets.Secret{Binary: out.SecretBinary}, nil
	}
	return nil, nil
}

// CreateSecret implements secrets.Manager.
func (m *Manager) CreateSecret(ctx context.Context, name, value string) error {
	_, err := m.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(value),
	})
	return errors.Wrap(err, "creating secret")
}

// SetSecret implements secrets.Manager.
func (m *Manager) SetSecret(ctx context.Context, name, value string) (secrets.SetOutcome, error) {
	_, err := m.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return secrets.Updated, errors.Wrap(err, "putting secret value")
		}
		if err := m.CreateSecret(ctx, name, value); err != nil {
			return secrets.Created, err
		}
		return secrets.Created, nil
	}
	return secrets.Updated, nil
}

// HasSecret implements secrets.Manager.
func (m *Manager) HasSecret(ctx context.Context, name string) (bool, error) {
	out, err := m.client.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "describing secret")
	}
	return out != nil, nil
}
