// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package provider

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/instiflow/instiflow/pkginfo"
	"github.com/spf13/viper"
)

// Public data endpoints ask for a descriptive user agent with a working
// contact address. The address comes from the INSTIFLOW_CONTACT environment
// variable (bound through viper) and falls back to a placeholder.
const defaultContact = "data@instiflow.example.com"

const clientTimeout = 30 * time.Second

// Contact returns the outbound contact address for the user agent.
func Contact() string {
	if contact := viper.GetString("contact"); contact != "" {
		return contact
	}
	return defaultContact
}

// UserAgent identifies this client to the public APIs it polls.
func UserAgent() string {
	version := pkginfo.Version
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("InstiFlow/%s (%s)", version, Contact())
}

// NewClient returns a resty client with the shared timeout and user agent.
func NewClient() *resty.Client {
	return resty.New().
		SetTimeout(clientTimeout).
		SetHeader("User-Agent", UserAgent())
}
