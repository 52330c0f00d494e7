/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package journalreader

// fieldOrderVerbose is the canonical field ordering used by Verbose
// rendering (§4.2: "approximately 100 keys... approximates the reference
// tool's output"). _SOURCE_REALTIME_TIMESTAMP is deliberately absent here:
// it is always written last, after this list and after any remaining
// fields in sorted order.
var fieldOrderVerbose = []string{
	"_TRANSPORT",
	"_UID",
	"_GID",
	"_FSUID",
	"_CAP_EFFECTIVE",
	"_SELINUX_CONTEXT",
	"_AUDIT_FIELD_APPARMOR",
	"_AUDIT_FIELD_ARCH",
	"_AUDIT_FIELD_CAPABILITY",
	"_AUDIT_FIELD_CAPNAME",
	"_AUDIT_FIELD_CLASS",
	"_AUDIT_FIELD_CODE",
	"_AUDIT_FIELD_COMPAT",
	"_AUDIT_FIELD_DENIED_MASK",
	"_AUDIT_FIELD_INFO",
	"_AUDIT_FIELD_IP",
	"_AUDIT_FIELD_NAME",
	"_AUDIT_FIELD_OPERATION",
	"_AUDIT_FIELD_OUID",
	"_AUDIT_FIELD_PROFILE",
	"_AUDIT_FIELD_REQUESTED_MASK",
	"_AUDIT_FIELD_SIG",
	"_AUDIT_FIELD_SYSCALL",
	"_AUDIT_ID",
	"_AUDIT_LOGINUID",
	"_AUDIT_SESSION",
	"_AUDIT_TYPE",
	"_AUDIT_TYPE_NAME",
	"_BOOT_ID",
	"_MACHINE_ID",
	"_HOSTNAME",
	"PRIORITY",
	"_PID",
	"TID",
	"_COMM",
	"_EXE",
	"_CMDLINE",
	"_SYSTEMD_CGROUP",
	"_SYSTEMD_OWNER_UID",
	"_SYSTEMD_UNIT",
	"_SYSTEMD_USER_UNIT",
	"_SYSTEMD_SLICE",
	"_SYSTEMD_USER_SLICE",
	"_SYSTEMD_INVOCATION_ID",
	"_STREAM_ID",
	"_KERNEL_SUBSYSTEM",
	"_KERNEL_DEVICE",
	"_UDEV_SYSNAME",
	"GLIB_DOMAIN",
	"GLIB_OLD_LOG_API",
	"GNOME_SHELL_EXTENSION_NAME",
	"GNOME_SHELL_EXTENSION_UUID",
	"THREAD_ID",
	"CODE_FILE",
	"CODE_LINE",
	"CODE_FUNC",
	"INVOCATION_ID",
	"SESSION_ID",
	"USER_ID",
	"LEADER",
	"UNIT",
	"UNIT_RESULT",
	"JOB_ID",
	"JOB_TYPE",
	"JOB_RESULT",
	"N_RESTARTS",
	"PULSE_BACKTRACE",
	"TIMESTAMP_MONOTONIC",
	"TIMESTAMP_BOOTTIME",
	"KERNEL_USEC",
	"USERSPACE_USEC",
	"CPU_USAGE_NSEC",
	"MESSAGE_ID",
	"SEAT_ID",
	"MESSAGE",
	"SHUTDOWN",
	"JOURNAL_NAME",
	"JOURNAL_PATH",
	"CURRENT_USE",
	"CURRENT_USE_PRETTY",
	"MAX_USE",
	"MAX_USE_PRETTY",
	"DISK_KEEP_FREE",
	"DISK_KEEP_FREE_PRETTY",
	"DISK_AVAILABLE",
	"DISK_AVAILABLE_PRETTY",
	"LIMIT",
	"LIMIT_PRETTY",
	"AVAILABLE",
	"AVAILABLE_PRETTY",
	"EXIT_CODE",
	"EXIT_STATUS",
	"COMMAND",
	"SYSLOG_FACILITY",
	"SYSLOG_IDENTIFIER",
	"SYSLOG_PID",
	"SYSLOG_RAW",
	"SYSLOG_TIMESTAMP",
	"NM_DEVICE",
	"NM_LOG_DOMAINS",
	"NM_LOG_LEVEL",
	"__MONOTONIC_TIMESTAMP",
}

const fieldSourceRealtimeTimestamp = "_SOURCE_REALTIME_TIMESTAMP"
