package system

import (
	"fmt"
	"log"
	"time"
)

func (s *System) auditlog(format string, i ...interface{}) {
	if s.audit == nil {
		return
	}
	line := time.Now().UTC().Truncate(time.Second).Format(time.RFC3339) + " " + fmt.Sprintf(format, i...) + "\n"
	if _, err := s.audit.Write([]byte(line)); err != nil {
		log.Println("Error writing audit log:", err)
	}
}
