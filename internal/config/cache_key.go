package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session.
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// QuizPayloadKey returns the cache key for a quiz's student-facing payload.
func (r *CacheKeyStruct) QuizPayloadKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:payload", quizID)
}

// MockSessionKey returns the cache key for a practice session's staged
// question material.
func (r *CacheKeyStruct) MockSessionKey(sessionID string) string {
	return fmt.Sprintf("mock:%s:session", sessionID)
}

// MockResultKey returns the cache key for a practice session's graded result.
func (r *CacheKeyStruct) MockResultKey(sessionID string) string {
	return fmt.Sprintf("mock:%s:result", sessionID)
}

var CacheKey = NewCacheKeyStruct()
