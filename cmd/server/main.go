package main

import "github.com/NguyenToan3107/hrm-backend/internal/app/server"

func main() {
	server.Run()
}
