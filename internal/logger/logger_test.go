// Copyright 2023 Google Inc. All Rights Reserved.
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

package logger

import (
	"bytes"
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const (
	textWarningString = `"severity":"WARNING".*"message":"TestLogs: www.warningExample.com"`
	textErrorString   = `"severity":"ERROR".*"message":"TestLogs: www.errorExample.com"`
)

type LoggerTest struct {
	suite.Suite
	buf *bytes.Buffer
}

func TestLoggerSuite(t *testing.T) { suite.Run(t, new(LoggerTest)) }

func (t *LoggerTest) SetupTest() {
	t.buf = &bytes.Buffer{}
	SetFormat("json")
	SetOutput(t.buf)
}

func (t *LoggerTest) TestLevelFiltering_Warning() {
	SetLevel(LevelNameWarn)

	Infof("TestLogs: www.infoExample.com")
	assert.Empty(t.T(), t.buf.String())

	Warnf("TestLogs: www.warningExample.com")
	assert.Regexp(t.T(), regexp.MustCompile(textWarningString), t.buf.String())
}

func (t *LoggerTest) TestLevelFiltering_Error() {
	SetLevel(LevelNameError)

	Warnf("TestLogs: www.warningExample.com")
	assert.Empty(t.T(), t.buf.String())

	Errorf("TestLogs: www.errorExample.com")
	assert.Regexp(t.T(), regexp.MustCompile(textErrorString), t.buf.String())
}

func (t *LoggerTest) TestOff_SuppressesEverything() {
	SetLevel(LevelNameOff)

	Errorf("TestLogs: www.errorExample.com")

	assert.Empty(t.T(), t.buf.String())
}

func (t *LoggerTest) TearDownTest() {
	SetLevel(LevelNameInfo)
	SetFormat("text")
	SetOutput(os.Stderr)
}
