// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrMethodNotFound("Counter", "Bump")
	errors.Wrap(err, "failed to resolve method")
	s.ErrorIs(err, ErrMethodNotFound)
	s.Equal(Code(ErrMethodNotFound), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))

	sameCodeErr := newGardenError("new error", ErrMethodNotFound.errCode, false)
	s.True(sameCodeErr.Is(ErrMethodNotFound))
}

func (s *ErrSuite) TestWrap() {
	// 参数相关错误。
	s.ErrorIs(WrapErrParameterMissing("method", "no method reference"), ErrParameterMissing)
	s.ErrorIs(WrapErrParameterInvalid(0, 2, "chain index out of order"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("malformed wire type %q", "x"), ErrParameterInvalid)

	// Delegate 相关错误。
	s.ErrorIs(WrapErrDelegateTypeInvalid("func(int)", "not registered"), ErrDelegateTypeInvalid)
	s.ErrorIs(WrapErrDelegateNoDeclaringType("bump", "free function"), ErrDelegateNoDeclaringType)
	s.ErrorIs(WrapErrMethodNotFound("Counter", "Bump", "failed to resolve"), ErrMethodNotFound)
	s.ErrorIs(WrapErrTypeNotRegistered("app", "Counter", "failed to resolve"), ErrTypeNotRegistered)
	s.ErrorIs(WrapErrTypeAlreadyRegistered("app", "Counter"), ErrTypeAlreadyRegistered)
	s.ErrorIs(WrapErrAssemblyNotFound("app", "failed to resolve"), ErrAssemblyNotFound)
	s.ErrorIs(WrapErrSignatureMismatch("func(int)", "func(string)"), ErrSignatureMismatch)

	// Record 相关错误。
	s.ErrorIs(WrapErrRecordFieldMissing("target0", "failed to decode"), ErrRecordFieldMissing)
	s.ErrorIs(WrapErrRecordFieldMismatch("Delegate", "*Entry", "string"), ErrRecordFieldMismatch)
	s.ErrorIs(WrapErrRecordDuplicateKey("method0"), ErrRecordDuplicateKey)
	s.ErrorIs(WrapErrInsufficientState("no matching method"), ErrInsufficientState)

	// General 错误。
	s.ErrorIs(WrapErrOperationNotSupported("re-serialize holder"), ErrOperationNotSupported)

	// Privilege 相关错误。
	s.ErrorIs(WrapErrPrivilegeNotPermitted("counter.bump"), ErrPrivilegeNotPermitted)
}

func (s *ErrSuite) TestIsRetryable() {
	s.False(IsRetryableErr(WrapErrRecordFieldMissing("target0")))
	s.False(IsRetryableErr(WrapErrInsufficientState("no matching method")))
	s.False(IsRetryableErr(errors.New("plain")))
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrRecordFieldMissing("target0"), WrapErrMethodNotFound("Counter", "Bump"))
	s.Equal(Code(ErrMethodNotFound), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
