package changelog

import (
	"bytes"
	"encoding/xml"

	"graphql-ddl/internal/ddl"
)

const (
	liquibaseNamespace      = "http://www.liquibase.org/xml/ns/dbchangelog"
	xsiNamespace            = "http://www.w3.org/2001/XMLSchema-instance"
	liquibaseSchemaLocation = liquibaseNamespace + " http://www.liquibase.org/xml/ns/dbchangelog/dbchangelog-latest.xsd"
	xmlHeader               = `<?xml version="1.1" encoding="UTF-8" standalone="no"?>` + "\n"
)

// XMLSerializer writes Liquibase XML changelogs.
type XMLSerializer struct{}

func (XMLSerializer) Format() string { return FormatXML }

type xmlChangeLog struct {
	XMLName        xml.Name       `xml:"databaseChangeLog"`
	Xmlns          string         `xml:"xmlns,attr"`
	XmlnsXsi       string         `xml:"xmlns:xsi,attr"`
	SchemaLocation string         `xml:"xsi:schemaLocation,attr"`
	ChangeSets     []xmlChangeSet `xml:"changeSet"`
}

type xmlChangeSet struct {
	Author       string           `xml:"author,attr"`
	ID           string           `xml:"id,attr"`
	CreateTables []xmlCreateTable `xml:"createTable"`
	ForeignKeys  []addForeignKey  `xml:"addForeignKeyConstraint"`
}

type xmlCreateTable struct {
	TableName string      `xml:"tableName,attr"`
	Columns   []xmlColumn `xml:"column"`
}

type xmlColumn struct {
	AutoIncrement bool         `xml:"autoIncrement,attr,omitempty"`
	Name          string       `xml:"name,attr"`
	Type          string       `xml:"type,attr"`
	Constraints   *constraints `xml:"constraints"`
}

// Serialize renders the changeset as an indented XML document.
func (XMLSerializer) Serialize(cs ddl.ChangeSet) ([]byte, error) {
	changeSet := xmlChangeSet{Author: cs.Author, ID: cs.ID}
	for _, table := range cs.Tables {
		createTable := xmlCreateTable{TableName: table.Name}
		for _, column := range table.Columns {
			createTable.Columns = append(createTable.Columns, xmlColumn{
				AutoIncrement: column.AutoIncrement,
				Name:          column.Name,
				Type:          column.Type.String(),
				Constraints:   constraintsFor(column),
			})
		}
		changeSet.CreateTables = append(changeSet.CreateTables, createTable)
	}
	changeSet.ForeignKeys = foreignKeysFor(cs)

	doc := xmlChangeLog{
		Xmlns:          liquibaseNamespace,
		XmlnsXsi:       xsiNamespace,
		SchemaLocation: liquibaseSchemaLocation,
		ChangeSets:     []xmlChangeSet{changeSet},
	}

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "    ")
	if err := encoder.Encode(doc); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
