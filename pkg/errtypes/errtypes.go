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

// Package errtypes contains definitions for common errors.
// It would have been nice to call this package errors, err or error
// but errors clashes with github.com/pkg/errors, err is used for any error
// variable and error is a reserved word :)
package errtypes

// NotFound is the error to use when a resource is not found.
type NotFound string

func (e NotFound) Error() string { return "error: not found: " + string(e) }

// IsNotFound implements the IsNotFound interface.
func (e NotFound) IsNotFound() {}

// AlreadyExists is the error to use when a resource already exists.
type AlreadyExists string

func (e AlreadyExists) Error() string { return "error: already exists: " + string(e) }

// IsAlreadyExists implements the IsAlreadyExists interface.
func (e AlreadyExists) IsAlreadyExists() {}

// BadRequest is the error to use when the caller request is invalid, for
// example an empty name or a file above the configured size limit.
type BadRequest string

func (e BadRequest) Error() string { return "error: bad request: " + string(e) }

// IsBadRequest implements the IsBadRequest interface.
func (e BadRequest) IsBadRequest() {}

// PermissionDenied is the error to use when a resource cannot be modified,
// such as the root folder of a document box.
type PermissionDenied string

func (e PermissionDenied) Error() string { return "error: permission denied: " + string(e) }

// IsPermissionDenied implements the IsPermissionDenied interface.
func (e PermissionDenied) IsPermissionDenied() {}

// MalformedContent is the error to use when uploaded content cannot be
// processed because it is corrupt.
type MalformedContent string

func (e MalformedContent) Error() string { return "error: malformed content: " + string(e) }

// IsMalformedContent implements the IsMalformedContent interface.
func (e MalformedContent) IsMalformedContent() {}

// ConfigError is the error to use when required configuration, such as
// secret material, is missing or unparsable.
type ConfigError string

func (e ConfigError) Error() string { return "error: config: " + string(e) }

// IsConfigError implements the IsConfigError interface.
func (e ConfigError) IsConfigError() {}

// Transient is the error to use for upstream failures that may succeed on
// retry, for example a refused database connection.
type Transient string

func (e Transient) Error() string { return "error: transient: " + string(e) }

// IsTransient implements the IsTransient interface.
func (e Transient) IsTransient() {}

// NotSupported is the error to use when an action is not supported.
type NotSupported string

func (e NotSupported) Error() string { return "error: not supported: " + string(e) }

// IsNotSupported implements the IsNotSupported interface.
func (e NotSupported) IsNotSupported() {}

// IsNotFound is the interface to implement
// to specify that a resource is not found.
type IsNotFound interface {
	IsNotFound()
}

// IsAlreadyExists is the interface to implement
// to specify that a resource already exists.
type IsAlreadyExists interface {
	IsAlreadyExists()
}

// IsBadRequest is the interface to implement
// to specify that a request is invalid.
type IsBadRequest interface {
	IsBadRequest()
}

// IsPermissionDenied is the interface to implement
// to specify that an action is denied.
type IsPermissionDenied interface {
	IsPermissionDenied()
}

// IsMalformedContent is the interface to implement
// to specify that content is corrupt.
type IsMalformedContent interface {
	IsMalformedContent()
}

// IsConfigError is the interface to implement
// to specify that configuration is missing or invalid.
type IsConfigError interface {
	IsConfigError()
}

// IsTransient is the interface to implement
// to specify that an upstream failure may succeed on retry.
type IsTransient interface {
	IsTransient()
}

// IsNotSupported is the interface to implement
// to specify that an action is not supported.
type IsNotSupported interface {
	IsNotSupported()
}
