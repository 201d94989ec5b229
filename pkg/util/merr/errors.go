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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Parameter related
	// 编码请求本身不合法（缺少方法、类型分类不对等）。
	ErrParameterMissing = newGardenError("missing parameter", 100, false)
	ErrParameterInvalid = newGardenError("invalid parameter", 101, false)

	// Delegate related
	ErrDelegateTypeInvalid     = newGardenError("type is not a delegate type", 200, false)
	ErrDelegateNoDeclaringType = newGardenError("method has no declaring type", 201, false)
	ErrMethodNotFound          = newGardenError("method not found", 202, false)
	ErrTypeNotRegistered       = newGardenError("type not registered", 203, false)
	ErrTypeAlreadyRegistered   = newGardenError("type already registered", 204, false)
	ErrAssemblyNotFound        = newGardenError("assembly not found", 205, false)
	ErrSignatureMismatch       = newGardenError("method signature mismatch", 206, false)

	// Record related
	// 解码到的记录不完整或已损坏。序列化不属于瞬态故障领域，一律不可重试。
	ErrRecordFieldMissing  = newGardenError("record field missing", 300, false)
	ErrRecordFieldMismatch = newGardenError("record field type mismatch", 301, false)
	ErrRecordDuplicateKey  = newGardenError("record duplicate key", 302, false)
	ErrInsufficientState   = newGardenError("insufficient deserialization state", 303, false)

	// General
	ErrOperationNotSupported = newGardenError("unsupported operation", 400, false)

	// Privilege related
	ErrPrivilegeNotPermitted = newGardenError("privilege not permitted", 500, false)

	errUnexpected = newGardenError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*gardenError)

func WithDetail(detail string) errorOption {
	return func(err *gardenError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *gardenError) {
		err.errType = etype
	}
}

type gardenError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newGardenError(msg string, code int32, retriable bool, options ...errorOption) gardenError {
	err := gardenError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e gardenError) code() int32 {
	return e.errCode
}

func (e gardenError) Error() string {
	return e.msg
}

func (e gardenError) Detail() string {
	return e.detail
}

func (e gardenError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(gardenError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
