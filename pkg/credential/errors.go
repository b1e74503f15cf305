// Copyright 2025 The Doclens Authors
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

package credential

import "errors"

// ErrNoCredentials is returned by NewPool when no usable key remains after
// filtering blank entries. This is a fatal configuration error: it is
// surfaced at startup, never deferred to first use.
var ErrNoCredentials = errors.New("no valid credentials configured")
