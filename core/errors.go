// Copyright 2025 Poiesic Systems
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


package core

import "errors"

// Domain validation errors
var (
	// ErrMissingUUID indicates an article without a provider UUID.
	ErrMissingUUID = errors.New("article has no uuid")

	// ErrMissingURL indicates an article without a canonical URL.
	ErrMissingURL = errors.New("article has no url")

	// ErrInvalidTimestamp indicates a published_at value that matches
	// neither accepted timestamp layout.
	ErrInvalidTimestamp = errors.New("unparseable timestamp")
)
