package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SFA Records API",
        "description": "Student and faculty records administration with an archive/restore lifecycle",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Admin login"},
        {"name": "Profile", "description": "Admin profile management"},
        {"name": "Students", "description": "Student records and archive"},
        {"name": "Faculty", "description": "Faculty records and archive"},
        {"name": "Courses", "description": "Course records and archive"},
        {"name": "Departments", "description": "Department records and archive"},
        {"name": "Activity", "description": "Append-only activity log"},
        {"name": "Dashboard", "description": "Aggregate record counts"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate admin",
                "responses": {
                    "200": {"description": "Token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/profile": {
            "get": {
                "tags": ["Profile"],
                "summary": "Get admin profile",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Profile"],
                "summary": "Update admin profile",
                "responses": {
                    "200": {"description": "Updated"},
                    "422": {"description": "Validation failed"}
                }
            }
        },
        "/profile/password": {
            "put": {
                "tags": ["Profile"],
                "summary": "Change admin password",
                "responses": {
                    "200": {"description": "Changed"},
                    "422": {"description": "Validation failed"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Validation failed"}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "responses": {
                    "200": {"description": "Updated"},
                    "404": {"description": "Not found"},
                    "422": {"description": "Validation failed"}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Archive student",
                "responses": {
                    "200": {"description": "Archived"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/archived-students": {
            "get": {
                "tags": ["Students"],
                "summary": "List archived students",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/archived-students/{id}/restore": {
            "post": {
                "tags": ["Students"],
                "summary": "Restore archived student",
                "responses": {
                    "200": {"description": "Restored"},
                    "404": {"description": "Archive or original record not found"}
                }
            }
        },
        "/archived-students/{id}/force": {
            "delete": {
                "tags": ["Students"],
                "summary": "Permanently delete archived student",
                "responses": {
                    "200": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/faculty": {
            "get": {
                "tags": ["Faculty"],
                "summary": "List faculty",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Faculty"],
                "summary": "Create faculty member",
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Validation failed"}
                }
            }
        },
        "/faculty/{id}": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Get faculty detail",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Faculty"],
                "summary": "Update faculty member",
                "responses": {
                    "200": {"description": "Updated"},
                    "404": {"description": "Not found"},
                    "422": {"description": "Validation failed"}
                }
            },
            "delete": {
                "tags": ["Faculty"],
                "summary": "Archive faculty member",
                "responses": {
                    "200": {"description": "Archived"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/archived-faculty": {
            "get": {
                "tags": ["Faculty"],
                "summary": "List archived faculty",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/archived-faculty/{id}/restore": {
            "post": {
                "tags": ["Faculty"],
                "summary": "Restore archived faculty member",
                "responses": {
                    "200": {"description": "Restored"},
                    "404": {"description": "Archive or original record not found"}
                }
            }
        },
        "/archived-faculty/{id}/force": {
            "delete": {
                "tags": ["Faculty"],
                "summary": "Permanently delete archived faculty member",
                "responses": {
                    "200": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create course",
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Validation failed"}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get course detail",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Update course",
                "responses": {
                    "200": {"description": "Updated"},
                    "404": {"description": "Not found"},
                    "422": {"description": "Validation failed"}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Archive course",
                "responses": {
                    "200": {"description": "Archived"},
                    "404": {"description": "Not found"},
                    "422": {"description": "Default course cannot be deleted"}
                }
            }
        },
        "/archived-courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List archived courses",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/archived-courses/{id}/restore": {
            "post": {
                "tags": ["Courses"],
                "summary": "Restore archived course",
                "responses": {
                    "200": {"description": "Restored"},
                    "404": {"description": "Archive or original record not found"}
                }
            }
        },
        "/archived-courses/{id}/force": {
            "delete": {
                "tags": ["Courses"],
                "summary": "Permanently delete archived course",
                "responses": {
                    "200": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Departments"],
                "summary": "List departments",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Departments"],
                "summary": "Create department",
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Validation failed"}
                }
            }
        },
        "/departments/{id}": {
            "get": {
                "tags": ["Departments"],
                "summary": "Get department detail",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Departments"],
                "summary": "Update department",
                "responses": {
                    "200": {"description": "Updated"},
                    "404": {"description": "Not found"},
                    "422": {"description": "Validation failed"}
                }
            },
            "delete": {
                "tags": ["Departments"],
                "summary": "Archive department",
                "responses": {
                    "200": {"description": "Archived"},
                    "404": {"description": "Not found"},
                    "422": {"description": "Default department cannot be deleted"}
                }
            }
        },
        "/archived-departments": {
            "get": {
                "tags": ["Departments"],
                "summary": "List archived departments",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/archived-departments/{id}/restore": {
            "post": {
                "tags": ["Departments"],
                "summary": "Restore archived department",
                "responses": {
                    "200": {"description": "Restored"},
                    "404": {"description": "Archive or original record not found"}
                }
            }
        },
        "/archived-departments/{id}/force": {
            "delete": {
                "tags": ["Departments"],
                "summary": "Permanently delete archived department",
                "responses": {
                    "200": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/activity-logs": {
            "get": {
                "tags": ["Activity"],
                "summary": "List activity logs",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard statistics",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "fields": {
                    "type": "object",
                    "additionalProperties": {"type": "string"}
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "message": {"type": "string"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
