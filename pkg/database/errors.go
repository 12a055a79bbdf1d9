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

package database

import (
	"database/sql"

	"github.com/docbox-eu/docbox/pkg/errtypes"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// PostgreSQL error codes the system reacts to.
const (
	codeDatabaseMissing   = "3D000"
	codeTableMissing      = "42P01"
	codeDuplicateDatabase = "42P04"
	codeUniqueViolation   = "23505"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsDatabaseMissing reports whether err means the database does not exist.
func IsDatabaseMissing(err error) bool { return pqCode(err) == codeDatabaseMissing }

// IsTableMissing reports whether err means a table does not exist.
func IsTableMissing(err error) bool { return pqCode(err) == codeTableMissing }

// IsDuplicateDatabase reports whether err means the database already exists.
func IsDuplicateDatabase(err error) bool { return pqCode(err) == codeDuplicateDatabase }

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool { return pqCode(err) == codeUniqueViolation }

// mapError translates driver errors into the shared taxonomy. Unique
// violations and missing schemas keep their specific mapping at the call
// sites that expect them, everything else connection shaped is transient.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	switch pqCode(err) {
	case codeUniqueViolation:
		return errtypes.AlreadyExists(err.Error())
	case codeDatabaseMissing, codeTableMissing, codeDuplicateDatabase:
		return err
	case "":
		return errtypes.Transient(err.Error())
	}
	return err
}
