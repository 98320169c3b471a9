//go:build !linux

package zfs

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
